// Package device abstracts the terminal panekit itself runs in.
//
// A Device switches between cooked and raw modes, reports and sets the
// screen size, renders a list of Changes, and polls for parsed input
// events. Whatever mode transitions happen, Close restores the mode that
// was in effect when the device was created.
//
// Two implementations are provided. TTY drives a tty directly with
// termios and escape sequences and decodes input bytes itself. Screen
// drives a tcell screen, which also works on Windows consoles and can be
// backed by a simulation screen in tests.
package device
