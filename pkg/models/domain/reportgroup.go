package domain

type ReportGroup struct {
	ID          string
	Name        string
	Description string
	Members     []string
}

// HasMember reports whether the user id is part of the group.
func (g ReportGroup) HasMember(userID string) bool {
	for _, m := range g.Members {
		if m == userID {
			return true
		}
	}
	return false
}

type ReportGroupMember struct {
	ID            string
	UserID        string
	ReportGroupID string
}

type User struct {
	ID        string
	Name      string
	FirstName string
	LastName  string
	Email     string
}

// Store is an mSupply store row read from the reporting datasource.
type Store struct {
	ID   string
	Name string
	Code string
}
