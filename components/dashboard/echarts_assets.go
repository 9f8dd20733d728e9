package dashboard

import (
	"os"
	"strings"
)

const (
	// DefaultEChartsAssetsHost is where rendered charts load the ECharts runtime from.
	DefaultEChartsAssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"
	// envEChartsCDN overrides the assets host (e.g. a self-hosted bucket).
	envEChartsCDN = "DASHBOARD_ECHARTS_CDN"
)

// EChartsAssetsHost returns the assets host, respecting DASHBOARD_ECHARTS_CDN if set.
func EChartsAssetsHost() string {
	if host := strings.TrimSpace(os.Getenv(envEChartsCDN)); host != "" {
		return ensureTrailingSlash(host)
	}
	return DefaultEChartsAssetsHost
}

func ensureTrailingSlash(value string) string {
	if value == "" {
		return ""
	}
	if strings.HasSuffix(value, "/") {
		return value
	}
	return value + "/"
}
