package main

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

// detectShareBaseURL computes the best-guess externally reachable base
// URL from the host's network interfaces. The last non-internal IPv4
// address wins; localhost is the fallback when none is found.
func detectShareBaseURL(cfg *Config) string {
	host := "localhost"

	ifaces, err := net.Interfaces()
	if err == nil {
		for _, iface := range ifaces {
			if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
				continue
			}

			addrs, err := iface.Addrs()
			if err != nil {
				continue
			}

			for _, addr := range addrs {
				ipNet, ok := addr.(*net.IPNet)
				if !ok {
					continue
				}
				if ip := ipNet.IP.To4(); ip != nil && !ip.IsLoopback() {
					host = ip.String()
				}
			}
		}
	}

	return cfg.scheme() + "://" + net.JoinHostPort(host, strconv.Itoa(cfg.port))
}

func serveShareBaseURL(cfg *Config, baseURL string, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		securityHeaders(cfg, w)

		err := json.NewEncoder(w).Encode(map[string]string{"url": baseURL})
		if err != nil {
			errs <- err

			return
		}
	}
}

// serveQR renders a PNG QR code of the join URL for an active room, so
// players on phones can scan their way in instead of typing the code.
func serveQR(cfg *Config, baseURL string, registry *RoomRegistry) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		code := canonicalCode(ps.ByName("code"))

		if registry.Lookup(code) == nil {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}

		url := baseURL + cfg.prefix + "/?code=" + code

		const qrSize = 320 // mobile-friendly size
		png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(png)
	}
}
