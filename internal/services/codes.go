package services

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"
)

const (
	qrCodePrefix           = "QR-"
	qrCodeHexLength        = 12
	verificationCodePrefix = "VER-"
	verificationCodeLength = 9
)

var (
	qrCodeRegexp           = regexp.MustCompile(`^QR-[A-F0-9]{12}$`)
	verificationCodeRegexp = regexp.MustCompile(`^VER-[A-Z0-9]{9}$`)
	verificationAlphabet   = []rune("ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")
)

// attendanceSeed is the seed hashed into a registration's QR code.
func attendanceSeed(eventID, userID string) string {
	return fmt.Sprintf("event-%s-user-%s", eventID, userID)
}

// generateQRCode derives an attendance token from seed, the current time and
// 4 random bytes: "QR-" followed by 12 uppercase hex digits of the SHA-256.
func generateQRCode(seed string, now time.Time) (string, error) {
	nonce := make([]byte, 4)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	input := fmt.Sprintf("%s-%d-%s", seed, now.UnixMilli(), hex.EncodeToString(nonce))
	sum := sha256.Sum256([]byte(input))
	return qrCodePrefix + strings.ToUpper(hex.EncodeToString(sum[:]))[:qrCodeHexLength], nil
}

// ValidQRCode reports whether code has the attendance token format.
func ValidQRCode(code string) bool {
	return qrCodeRegexp.MatchString(code)
}

func generateVerificationCode() (string, error) {
	b := make([]rune, verificationCodeLength)
	max := big.NewInt(int64(len(verificationAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = verificationAlphabet[n.Int64()]
	}
	return verificationCodePrefix + string(b), nil
}

// ValidVerificationCode reports whether code has the certificate verification format.
func ValidVerificationCode(code string) bool {
	return verificationCodeRegexp.MatchString(code)
}

func certificateNumber(eventID, userID string, now time.Time) string {
	return fmt.Sprintf("CERT-%s-%s-%d", eventID, userID, now.UnixMilli())
}
