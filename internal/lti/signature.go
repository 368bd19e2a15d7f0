package lti

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"sort"
	"strings"
)

// percentEncode applies RFC 3986 encoding with the unreserved set OAuth 1.0
// requires. url.QueryEscape is not usable here: it emits '+' for spaces and
// leaves '~' escaped differently than the signature base string expects.
func percentEncode(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
		} else {
			b.WriteByte('%')
			b.WriteByte(upperhex[c>>4])
			b.WriteByte(upperhex[c&0x0f])
		}
	}
	return b.String()
}

const upperhex = "0123456789ABCDEF"

func isUnreserved(c byte) bool {
	return (c >= 'A' && c <= 'Z') ||
		(c >= 'a' && c <= 'z') ||
		(c >= '0' && c <= '9') ||
		c == '-' || c == '.' || c == '_' || c == '~'
}

// normalizeParams sorts all parameters except oauth_signature by encoded key
// then encoded value and joins them as key=value pairs with '&'.
func normalizeParams(params map[string]string) string {
	pairs := make([]string, 0, len(params))
	for k, v := range params {
		if k == "oauth_signature" {
			continue
		}
		pairs = append(pairs, percentEncode(k)+"="+percentEncode(v))
	}
	sort.Strings(pairs)
	return strings.Join(pairs, "&")
}

// SignatureBaseString builds METHOD&enc(url)&enc(params) over the
// client-visible launch URL.
func SignatureBaseString(method, launchURL string, params map[string]string) string {
	return strings.ToUpper(method) + "&" +
		percentEncode(launchURL) + "&" +
		percentEncode(normalizeParams(params))
}

// Sign computes the base64 HMAC-SHA1 signature of a launch request. The
// signing key is the percent-encoded consumer secret followed by '&' (the
// empty token secret of an LTI launch).
func Sign(method, launchURL string, params map[string]string, consumerSecret string) string {
	base := SignatureBaseString(method, launchURL, params)
	mac := hmac.New(sha1.New, []byte(percentEncode(consumerSecret)+"&"))
	mac.Write([]byte(base))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// VerifySignature recomputes the expected signature and compares it against
// the oauth_signature parameter in constant time.
func VerifySignature(method, launchURL string, params map[string]string, consumerSecret string) bool {
	provided, ok := params["oauth_signature"]
	if !ok || provided == "" {
		return false
	}
	expected := Sign(method, launchURL, params, consumerSecret)
	return hmac.Equal([]byte(expected), []byte(provided))
}
