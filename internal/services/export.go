package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/userdeck/backend/internal/models"
)

// ExportFilename is the attachment name served by the export endpoint.
const ExportFilename = "users-export.csv"

var csvHeader = []string{
	"First Name", "Last Name", "Email", "Phone",
	"Address", "City", "State", "ZIP Code", "Created At",
}

// ExportCSV renders every record, newest first, as CSV. Every field is
// double-quote-wrapped regardless of content, which is why this does not go
// through encoding/csv (that package quotes only when it has to).
func (s *UserService) ExportCSV(ctx context.Context) ([]byte, error) {
	users, err := s.repo.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export users: %w", err)
	}
	return renderCSV(users), nil
}

func renderCSV(users []models.User) []byte {
	var b strings.Builder
	b.WriteString(strings.Join(csvHeader, ","))

	for _, u := range users {
		row := []string{
			u.FirstName,
			u.LastName,
			u.Email,
			u.Phone,
			u.Address,
			u.City,
			u.State,
			u.ZipCode,
			u.CreatedAt.UTC().Format(time.RFC3339),
		}
		b.WriteByte('\n')
		for i, field := range row {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteByte('"')
			b.WriteString(strings.ReplaceAll(field, `"`, `""`))
			b.WriteByte('"')
		}
	}

	return []byte(b.String())
}
