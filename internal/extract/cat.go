package extract

import (
	"strings"

	"github.com/lu4p/cat"
)

// extractWithCat handles OpenDocument text and RTF.
func extractWithCat(content []byte) (string, error) {
	text, err := cat.FromBytes(content)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}
