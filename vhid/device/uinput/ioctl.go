package uinput

// uinput ioctl request numbers from <linux/uinput.h>; golang.org/x/sys/unix
// does not export these.
const (
	UI_SET_EVBIT   = 0x40045564
	UI_SET_KEYBIT  = 0x40045565
	UI_SET_RELBIT  = 0x40045566
	UI_DEV_CREATE  = 0x5501
	UI_DEV_DESTROY = 0x5502
)
