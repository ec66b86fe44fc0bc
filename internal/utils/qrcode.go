package utils

import (
	"encoding/base64"

	"github.com/skip2/go-qrcode"
)

// GenerateQRCodeBase64 encode une URL en QR code PNG base64, renvoyé une
// seule fois à l'inscription du tenant (accès rapide au widget).
func GenerateQRCodeBase64(url string) (string, error) {
	png, err := qrcode.Encode(url, qrcode.Medium, 256)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(png), nil
}
