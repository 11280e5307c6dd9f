package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/allape/openvhid/config"
	"github.com/allape/openvhid/factory"
	"github.com/allape/openvhid/logger"
	"github.com/allape/openvhid/vhid"
	"github.com/allape/openvhid/vhid/caps"
	"github.com/allape/openvhid/vhid/dispatch"
	"github.com/allape/openvhid/vhid/event"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var log = logger.New("[main]")

func main() {
	conf, err := config.GetConfig()
	if err != nil {
		log.Println("get config:", err, "- using defaults")
	}

	set := caps.Default()

	d, err := factory.DeviceFromConfig(conf, set)
	if err != nil {
		log.Fatalln("device from config:", err)
	}
	defer func() {
		_ = d.Close()
	}()

	coordinator, err := factory.CoordinatorFromConfig(conf)
	if err != nil {
		log.Fatalln("coordinator from config:", err)
	}

	dispatcher := dispatch.New(d, event.NewTranslator(set), dispatch.Options{
		QueueSize:         conf.Dispatcher.QueueSize,
		OnPointerActivity: coordinator.Touch,
	})

	server, err := vhid.New(d, dispatcher, coordinator)
	if err != nil {
		log.Fatalln("new vhid server:", err)
	}

	if err := server.Activate(); err != nil {
		log.Fatalln("activate device:", err)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	if conf.HTTP.Cors {
		router.Use(cors.Default())
	}

	upgrader := websocket.Upgrader{}
	if conf.HTTP.Cors {
		upgrader.CheckOrigin = func(r *http.Request) bool {
			return true
		}
	}

	router.GET(conf.HTTP.WsPath, func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Println("upgrade:", err)
			return
		}
		defer func() {
			_ = conn.Close()
		}()

		err = server.HandleClient(Websockets2Client(conn))
		if err != nil {
			log.Println("handle client:", err)
		}
	})

	SetupAPI(router, server)

	go func() {
		log.Fatalln(router.Run(conf.HTTP.Addr))
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	log.Println("started")
	sig := <-sigs
	log.Println("exiting with", sig)

	server.Shutdown()
}
