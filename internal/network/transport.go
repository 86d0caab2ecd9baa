package network

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/proxy"
)

// NewTransport настраивает транспорт с ограниченным временем на соединение.
// Если указан proxyAddr, весь трафик идет через SOCKS5 (Tor).
func NewTransport(proxyAddr string, connectTimeout time.Duration) (*http.Transport, error) {
	dialer := &net.Dialer{Timeout: connectTimeout}

	transport := &http.Transport{
		DialContext:       dialer.DialContext,
		DisableKeepAlives: true, // Сессия живет один сценарий, пул соединений не нужен
	}

	if proxyAddr != "" {
		socks, err := proxy.SOCKS5("tcp", proxyAddr, nil, dialer)
		if err != nil {
			return nil, fmt.Errorf("ошибка подключения к SOCKS5 (%s): %w", proxyAddr, err)
		}
		transport.DialContext = nil
		transport.Dial = socks.Dial
	}

	return transport, nil
}
