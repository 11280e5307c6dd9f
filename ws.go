package main

import (
	"github.com/allape/openvhid/vhid"
	"github.com/gorilla/websocket"
)

type WebsocketsClient struct {
	Conn *websocket.Conn
}

func (w *WebsocketsClient) Read(dst []byte) (int, error) {
	_, src, err := w.Conn.ReadMessage()
	if err != nil {
		return 0, err
	}
	n := copy(dst, src)
	return n, nil
}

func (w *WebsocketsClient) Write(src []byte) (int, error) {
	err := w.Conn.WriteMessage(websocket.BinaryMessage, src)
	if err != nil {
		return 0, err
	}
	return len(src), nil
}

func (w *WebsocketsClient) Close() error {
	return w.Conn.Close()
}

func Websockets2Client(conn *websocket.Conn) vhid.Client {
	return &WebsocketsClient{Conn: conn}
}
