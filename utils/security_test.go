// minber/utils/security_test.go
package utils

import (
	"net/http/httptest"
	"testing"
)

func TestGetIPAddressHeaderPrecedence(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.1:1234"

	if ip := GetIPAddress(r); ip != "10.0.0.1" {
		t.Errorf("Expected RemoteAddr fallback, got %q", ip)
	}

	r.Header.Set("X-Real-IP", "3.3.3.3")
	if ip := GetIPAddress(r); ip != "3.3.3.3" {
		t.Errorf("Expected X-Real-IP, got %q", ip)
	}

	r.Header.Set("X-Forwarded-For", "2.2.2.2, 9.9.9.9")
	if ip := GetIPAddress(r); ip != "2.2.2.2" {
		t.Errorf("Expected first X-Forwarded-For entry, got %q", ip)
	}

	r.Header.Set("CF-Connecting-IP", "1.1.1.1")
	if ip := GetIPAddress(r); ip != "1.1.1.1" {
		t.Errorf("Expected CF-Connecting-IP to win, got %q", ip)
	}
}
