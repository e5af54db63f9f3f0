package geo

import (
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"
)

// Location результат геолокации; пустые поля означают "неизвестно"
type Location struct {
	Country string
	City    string
}

type Locator interface {
	Lookup(ip string) (Location, error)
}

// NopLocator используется, когда база GeoLite2 не настроена
type NopLocator struct{}

func (NopLocator) Lookup(string) (Location, error) {
	return Location{}, nil
}

type MaxMindLocator struct {
	reader *geoip2.Reader
}

// Open открывает базу GeoLite2-City (.mmdb)
func Open(path string) (*MaxMindLocator, error) {
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open geoip database: %w", err)
	}
	return &MaxMindLocator{reader: reader}, nil
}

func (l *MaxMindLocator) Lookup(ip string) (Location, error) {
	addr := net.ParseIP(ip)
	if !IsPublicIP(addr) {
		return Location{}, nil
	}

	record, err := l.reader.City(addr)
	if err != nil {
		return Location{}, fmt.Errorf("geoip lookup failed: %w", err)
	}

	return Location{
		Country: record.Country.Names["en"],
		City:    record.City.Names["en"],
	}, nil
}

func (l *MaxMindLocator) Close() error {
	return l.reader.Close()
}

// IsPublicIP отсекает loopback, приватные и невалидные адреса
func IsPublicIP(ip net.IP) bool {
	if ip == nil {
		return false
	}
	return !(ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() || ip.IsLinkLocalUnicast())
}
