// Package browser provides cross-platform browser opening functionality.
package browser

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strings"
)

// Starter launches a command without waiting for it to exit.
type Starter func(name string, args ...string) error

func startCommand(name string, args ...string) error {
	return exec.Command(name, args...).Start() // #nosec G204 -- URL validated by Validate
}

// Open opens the specified URL in the default browser.
func Open(urlString string) error {
	return OpenWith(startCommand, runtime.GOOS, urlString)
}

// OpenWith validates urlString and hands the platform's open command to start.
func OpenWith(start Starter, goos, urlString string) error {
	if err := Validate(urlString); err != nil {
		return err
	}
	name, args, err := Command(goos, urlString)
	if err != nil {
		return err
	}
	return start(name, args...)
}

// Validate accepts only well-formed http and https URLs so that nothing else
// reaches the system opener.
func Validate(urlString string) error {
	if strings.ContainsAny(urlString, " \t\r\n\x00") {
		return fmt.Errorf("invalid URL: contains whitespace or control characters")
	}
	parsedURL, err := url.Parse(urlString)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("unsupported URL scheme: %q (only http and https allowed)", parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("invalid URL: missing host")
	}
	return nil
}

// Command returns the command that opens urlString on goos.
func Command(goos, urlString string) (string, []string, error) {
	switch goos {
	case "linux", "freebsd", "openbsd", "netbsd":
		return "xdg-open", []string{urlString}, nil
	case "darwin":
		return "open", []string{urlString}, nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", urlString}, nil
	default:
		return "", nil, fmt.Errorf("unsupported platform: %s", goos)
	}
}
