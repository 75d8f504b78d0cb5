package artifact

import (
	"fmt"
	"path"
	"strings"
)

// InvoiceKey возвращает ключ файла счета: invoices/invoice_<invoiceID>.pdf
func InvoiceKey(invoiceID int64) string {
	return path.Join("invoices", fmt.Sprintf("invoice_%d.pdf", invoiceID))
}

// validateKey пропускает только относительные ключи без выхода за корень хранилища
func validateKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("artifact: key is required")
	}
	if strings.Contains(key, "\\") {
		return "", fmt.Errorf("artifact: key %q contains invalid path characters", key)
	}
	cleaned := path.Clean(key)
	if path.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("artifact: key %q contains invalid traversal sequence", key)
	}
	return cleaned, nil
}
