package utils

import (
	"net/http"
	"net/netip"
	"strings"
)

// UnknownIP 无法解析出真实地址时返回的哨兵值
const UnknownIP = "unknown"

// 常见边缘代理写入的单值头，按优先级排列
var realIPHeaders = []string{
	"CF-Connecting-IP", // Cloudflare
	"True-Client-IP",   // Akamai / Cloudflare Enterprise
	"X-Real-IP",        // nginx
}

// ClientIP 按优先级解析访客地址：
// X-Forwarded-For 的第一跳 > 单值 real-ip 头 > 直连地址。
// 占位值（"unknown"、"-"、空串）和无法解析为 IP 的值都会被跳过；
// 全部失败时返回 UnknownIP。remoteAddr 传空串表示不信任直连地址。
func ClientIP(h http.Header, remoteAddr string) string {
	if xff := h.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip, ok := NormalizeIP(first); ok {
			return ip
		}
	}

	for _, name := range realIPHeaders {
		if ip, ok := NormalizeIP(h.Get(name)); ok {
			return ip
		}
	}

	if ip, ok := NormalizeIP(remoteAddr); ok {
		return ip
	}

	return UnknownIP
}

// NormalizeIP returns the canonical form of an address that may carry a port,
// brackets or surrounding quotes. IPv4-mapped IPv6 addresses are unmapped.
func NormalizeIP(raw string) (string, bool) {
	s := strings.Trim(strings.TrimSpace(raw), `"`)
	if s == "" || strings.EqualFold(s, UnknownIP) || s == "-" {
		return "", false
	}

	if addr, err := netip.ParseAddr(s); err == nil {
		return addr.Unmap().WithZone("").String(), true
	}
	if ap, err := netip.ParseAddrPort(s); err == nil {
		return ap.Addr().Unmap().WithZone("").String(), true
	}
	// "[2001:db8::1]" without a port
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		if addr, err := netip.ParseAddr(s[1 : len(s)-1]); err == nil {
			return addr.Unmap().WithZone("").String(), true
		}
	}
	return "", false
}
