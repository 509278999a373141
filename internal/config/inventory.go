package config

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"premigration-validator/internal/device"
)

// LoadInventory reads a device CSV with the columns
// hostname,ip,model,site,role. The first row is a header. Rows without a
// hostname or address are skipped; site is informational only.
func LoadInventory(path string) ([]device.Descriptor, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening inventory: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	reader.Comment = '#'

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading inventory %s: %w", path, err)
	}

	var devices []device.Descriptor
	for i, record := range records {
		if i == 0 || len(record) < 2 {
			continue
		}
		field := func(n int) string {
			if len(record) > n {
				return strings.TrimSpace(record[n])
			}
			return ""
		}

		hostname, address := field(0), field(1)
		if hostname == "" || address == "" {
			continue
		}
		devices = append(devices, device.Descriptor{
			Hostname: hostname,
			Address:  address,
			Model:    field(2),
			Role:     device.Role(field(4)),
		})
	}
	return devices, nil
}
