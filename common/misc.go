package common

import (
	"os"
	"strings"
)

const DefaultServiceName = "ieflow"

var serviceInstance = func() string {
	host, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return host
}()

func GetServiceName() string {
	if name := os.Getenv("SERVICE_NAME"); name != "" {
		return name
	}
	return DefaultServiceName
}

func GetServiceInstance() string {
	return serviceInstance
}

// SplitAndTrim splits a comma separated env value, dropping blank items.
func SplitAndTrim(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}
