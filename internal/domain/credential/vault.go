// Package credential implements the validation contract for WhatsApp
// session credential blobs, independent of how or where they are stored.
package credential

import (
	"encoding/base64"
	"encoding/json"
	"regexp"
	"strings"
)

// MaxDecodedSize is the largest credential blob the vault will accept,
// decoded, per the on-disk credential format.
const MaxDecodedSize = 5 * 1024 * 1024

// MinFileSize is the smallest credential blob considered plausible.
const MinFileSize = 10

var (
	meIDPattern    = regexp.MustCompile(`^(\d+):`)
	deepScanDigits = regexp.MustCompile(`(\d{10,15}):`)
	phoneKeyDigits = regexp.MustCompile(`^\d{10,15}$`)
)

// Parsed is the result of successfully validating a credential blob.
type Parsed struct {
	Raw   []byte
	Phone string
}

// Validate runs the full §4.2 validation contract against a raw credential
// blob, which may be a JSON object or a base64-encoded JSON string.
// expectedPhone, if non-empty, must match the extracted phone digit-for-digit.
func Validate(raw []byte, expectedPhone string) (*Parsed, error) {
	if len(raw) < MinFileSize {
		return nil, ErrCredentialTooSmall
	}

	decoded, err := decodeIfBase64(raw)
	if err != nil {
		return nil, ErrCredentialMalformed
	}
	if len(decoded) > MaxDecodedSize {
		return nil, ErrCredentialTooLarge
	}

	var obj map[string]interface{}
	if err := json.Unmarshal(decoded, &obj); err != nil {
		return nil, ErrCredentialMalformed
	}
	if len(obj) == 0 {
		return nil, ErrCredentialEmpty
	}

	creds, ok := obj["creds"].(map[string]interface{})
	if !ok {
		return nil, ErrMissingCredsObject
	}
	for _, field := range []string{"noiseKey", "signedIdentityKey", "signedPreKey", "registrationId"} {
		if _, present := creds[field]; !present {
			return nil, ErrMissingRequiredField
		}
	}

	phone := ExtractPhone(obj)
	if phone == "" {
		return nil, ErrPhoneNotFound
	}

	if expectedPhone != "" {
		if digitsOnly(expectedPhone) != phone {
			return nil, ErrPhoneMismatch
		}
	}

	return &Parsed{Raw: decoded, Phone: phone}, nil
}

// ExtractPhone implements the §4.2.3 phone extraction algorithm: try
// creds.me.id, then me.id, then a bounded-depth deep scan.
func ExtractPhone(obj map[string]interface{}) string {
	if creds, ok := obj["creds"].(map[string]interface{}); ok {
		if me, ok := creds["me"].(map[string]interface{}); ok {
			if id, ok := me["id"].(string); ok {
				if phone := matchMeID(id); phone != "" {
					return phone
				}
			}
		}
	}
	if me, ok := obj["me"].(map[string]interface{}); ok {
		if id, ok := me["id"].(string); ok {
			if phone := matchMeID(id); phone != "" {
				return phone
			}
		}
	}
	return deepScanForPhone(obj, 0, 5)
}

func matchMeID(id string) string {
	m := meIDPattern.FindStringSubmatch(id)
	if len(m) != 2 {
		return ""
	}
	return m[1]
}

// deepScanForPhone walks obj to depth maxDepth looking for a string value
// matching `(\d{10,15}):` or a key containing "phone"/"number" whose value
// is a bare 10-15 digit string.
func deepScanForPhone(v interface{}, depth, maxDepth int) string {
	if depth > maxDepth {
		return ""
	}
	switch t := v.(type) {
	case map[string]interface{}:
		for key, val := range t {
			lowerKey := strings.ToLower(key)
			if s, ok := val.(string); ok {
				if (strings.Contains(lowerKey, "phone") || strings.Contains(lowerKey, "number")) && phoneKeyDigits.MatchString(s) {
					return s
				}
				if m := deepScanDigits.FindStringSubmatch(s); len(m) == 2 {
					return m[1]
				}
			}
			if found := deepScanForPhone(val, depth+1, maxDepth); found != "" {
				return found
			}
		}
	case []interface{}:
		for _, item := range t {
			if found := deepScanForPhone(item, depth+1, maxDepth); found != "" {
				return found
			}
		}
	case string:
		if m := deepScanDigits.FindStringSubmatch(t); len(m) == 2 {
			return m[1]
		}
	}
	return ""
}

func decodeIfBase64(raw []byte) ([]byte, error) {
	trimmed := strings.TrimSpace(string(raw))
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		return raw, nil
	}
	decoded, err := base64.StdEncoding.DecodeString(trimmed)
	if err != nil {
		// Not base64; treat as raw JSON and let the caller's Unmarshal fail
		// with a precise error if it truly is malformed.
		return raw, nil
	}
	return decoded, nil
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
