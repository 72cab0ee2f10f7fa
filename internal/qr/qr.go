// Package qr manages seat QR codes: named seat groups per tenant and
// the deep-link payloads their printed codes resolve to.
package qr

import (
	"encoding/base64"
	"net/url"
	"strings"

	qrcode "github.com/skip2/go-qrcode"

	"canteen-backend/internal/apperr"
	"canteen-backend/internal/models"
)

const imageSize = 256

// BuildPayload renders the deep link a seat code carries. The customer
// menu reads theaterId, qrName and seat back out of it.
func BuildPayload(baseURL, tenantID, qrName, seat string) string {
	q := url.Values{}
	q.Set("theaterId", tenantID)
	q.Set("qrName", qrName)
	q.Set("seat", seat)
	return strings.TrimRight(baseURL, "/") + "/menu?" + q.Encode()
}

// EncodePNG renders the payload as a PNG QR image.
func EncodePNG(payload string) ([]byte, error) {
	png, err := qrcode.Encode(payload, qrcode.Medium, imageSize)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "encode qr image", err)
	}
	return png, nil
}

// DataURL wraps PNG bytes as an inline data URL, the fallback used when
// object storage is not configured.
func DataURL(png []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
}

// addGroup appends a group, enforcing per-tenant name uniqueness. The
// same name under a different tenant lives in a different list and
// never conflicts.
func addGroup(groups []models.QRGroup, g models.QRGroup) ([]models.QRGroup, error) {
	for _, existing := range groups {
		if existing.Name == g.Name {
			return nil, apperr.Newf(apperr.Conflict, "qr name %q already exists", g.Name)
		}
	}
	return append(groups, g), nil
}

func findGroup(groups []models.QRGroup, groupID string) (int, error) {
	for i, g := range groups {
		if g.ID == groupID {
			return i, nil
		}
	}
	return -1, apperr.New(apperr.NotFound, "qr name not found")
}

func removeSeat(seats []models.QRSeat, label string) ([]models.QRSeat, error) {
	for i, s := range seats {
		if s.Label == label {
			return append(seats[:i], seats[i+1:]...), nil
		}
	}
	return nil, apperr.Newf(apperr.NotFound, "seat %q not found", label)
}
