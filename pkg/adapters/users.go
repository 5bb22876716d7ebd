package adapters

import (
	"fmt"

	"github.com/de-tools/report-scheduler/pkg/models/domain"
)

func recordString(rec map[string]any, key string) string {
	v, ok := rec[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return fmt.Sprintf("%.0f", t)
	default:
		return fmt.Sprint(t)
	}
}

// MapRecordToUser reads a row of the "user" table of the reporting datasource.
func MapRecordToUser(rec map[string]any) domain.User {
	return domain.User{
		ID:        recordString(rec, "id"),
		Name:      recordString(rec, "name"),
		FirstName: recordString(rec, "first_name"),
		LastName:  recordString(rec, "last_name"),
		Email:     recordString(rec, "e_mail"),
	}
}

func MapRecordToStore(rec map[string]any) domain.Store {
	return domain.Store{
		ID:   recordString(rec, "id"),
		Name: recordString(rec, "name"),
		Code: recordString(rec, "code"),
	}
}
