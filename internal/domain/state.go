package domain

import (
	"slices"
	"time"
)

// Theme is the UI color scheme.
type Theme string

// Themes.
const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// AI providers.
const (
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
)

// AISettings selects the enrichment provider.
type AISettings struct {
	Provider    string `json:"provider" validate:"oneof=gemini ollama"`
	OllamaURL   string `json:"ollamaUrl" validate:"omitempty,url"`
	OllamaModel string `json:"ollamaModel"`
	GeminiModel string `json:"geminiModel,omitempty"`
}

// DBSettings records the database the household chose during setup.
type DBSettings struct {
	Type     string `json:"type" validate:"oneof=sqlite postgres"`
	Host     string `json:"host,omitempty"`
	User     string `json:"user,omitempty"`
	Password string `json:"password,omitempty"`
	Name     string `json:"name"`
}

// Backup frequencies.
const (
	BackupDaily  = "daily"
	BackupWeekly = "weekly"
	BackupManual = "manual"
)

// Backup locations.
const (
	BackupLocal = "local"
	BackupDrive = "drive"
	BackupNAS   = "nas"
	BackupS3    = "s3"
)

// BackupSettings controls automatic backups.
type BackupSettings struct {
	Frequency            string     `json:"frequency" validate:"oneof=daily weekly manual"`
	Location             string     `json:"location" validate:"oneof=local drive nas s3"`
	LastBackupDate       *time.Time `json:"lastBackupDate,omitempty"`
	NASPath              string     `json:"nasPath,omitempty"`
	GoogleDriveConnected bool       `json:"googleDriveConnected"`
	GoogleDriveUser      string     `json:"googleDriveUser,omitempty"`
}

// AppState is the whole catalog. It is persisted as one document and replaced
// wholesale on every change.
type AppState struct {
	IsSetupComplete bool           `json:"isSetupComplete"`
	IsDemoMode      bool           `json:"isDemoMode"`
	Books           []Book         `json:"books"`
	Users           []User         `json:"users"`
	Locations       []Location     `json:"locations"`
	Loans           []Loan         `json:"loans"`
	CurrentUser     string         `json:"currentUser"` // May dangle; readers degrade to no active user
	Theme           Theme          `json:"theme"`
	AISettings      AISettings     `json:"aiSettings"`
	DBSettings      DBSettings     `json:"dbSettings"`
	BackupSettings  BackupSettings `json:"backupSettings"`
}

// Default settings.
var (
	DefaultAISettings = AISettings{
		Provider:    ProviderGemini,
		OllamaURL:   "http://localhost:11434",
		OllamaModel: "llama3.2",
		GeminiModel: "gemini-2.5-flash",
	}
	DefaultDBSettings = DBSettings{
		Type: "sqlite",
		Host: "localhost",
		Name: "homelibrary",
	}
	DefaultBackupSettings = BackupSettings{
		Frequency: BackupWeekly,
		Location:  BackupLocal,
	}
)

// DefaultState returns the empty production document.
func DefaultState() AppState {
	return AppState{
		Books:          []Book{},
		Users:          []User{},
		Locations:      []Location{},
		Loans:          []Loan{},
		Theme:          ThemeDark,
		AISettings:     DefaultAISettings,
		DBSettings:     DefaultDBSettings,
		BackupSettings: DefaultBackupSettings,
	}
}

// Clone returns a deep copy. Reducers mutate clones, never the input.
func (s AppState) Clone() AppState {
	out := s
	out.Books = cloneEach(s.Books, Book.Clone)
	out.Users = cloneEach(s.Users, User.Clone)
	out.Locations = slices.Clone(s.Locations)
	out.Loans = cloneEach(s.Loans, Loan.Clone)
	if s.BackupSettings.LastBackupDate != nil {
		v := *s.BackupSettings.LastBackupDate
		out.BackupSettings.LastBackupDate = &v
	}
	if out.Books == nil {
		out.Books = []Book{}
	}
	if out.Users == nil {
		out.Users = []User{}
	}
	if out.Locations == nil {
		out.Locations = []Location{}
	}
	if out.Loans == nil {
		out.Loans = []Loan{}
	}
	return out
}

func cloneEach[T any](in []T, clone func(T) T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	for i, v := range in {
		out[i] = clone(v)
	}
	return out
}

// FindBook returns the book with id.
func (s *AppState) FindBook(id string) (Book, bool) {
	return find(s.Books, func(b Book) bool { return b.ID == id })
}

// FindUser returns the user with id.
func (s *AppState) FindUser(id string) (User, bool) {
	return find(s.Users, func(u User) bool { return u.ID == id })
}

// FindLocation returns the location with id.
func (s *AppState) FindLocation(id string) (Location, bool) {
	return find(s.Locations, func(l Location) bool { return l.ID == id })
}

// FindLoan returns the loan with id.
func (s *AppState) FindLoan(id string) (Loan, bool) {
	return find(s.Loans, func(l Loan) bool { return l.ID == id })
}

func find[T any](items []T, match func(T) bool) (T, bool) {
	if i := slices.IndexFunc(items, match); i >= 0 {
		return items[i], true
	}
	var zero T
	return zero, false
}

// ActiveUser resolves CurrentUser. A dangling or empty reference means no active user.
func (s *AppState) ActiveUser() (User, bool) {
	if s.CurrentUser == "" {
		return User{}, false
	}
	return s.FindUser(s.CurrentUser)
}

// BooksAt returns the books placed directly in locationID.
func (s *AppState) BooksAt(locationID string) []Book {
	var out []Book
	for _, b := range s.Books {
		if b.LocationID == locationID {
			out = append(out, b)
		}
	}
	return out
}

// Stats summarizes the catalog.
type Stats struct {
	Books         int     `json:"books" yaml:"books"`
	Users         int     `json:"users" yaml:"users"`
	Locations     int     `json:"locations" yaml:"locations"`
	ActiveLoans   int     `json:"activeLoans" yaml:"activeLoans"`
	OverdueLoans  int     `json:"overdueLoans" yaml:"overdueLoans"`
	Unassigned    int     `json:"unassigned" yaml:"unassigned"`
	TotalValue    float64 `json:"totalValue" yaml:"totalValue"`
	SignedCopies  int     `json:"signedCopies" yaml:"signedCopies"`
	FirstEditions int     `json:"firstEditions" yaml:"firstEditions"`
}

// Summarize computes catalog statistics as of now.
func (s *AppState) Summarize(now time.Time) Stats {
	st := Stats{Books: len(s.Books), Users: len(s.Users), Locations: len(s.Locations)}
	for _, b := range s.Books {
		st.TotalValue += b.EstimatedValue
		if !b.IsPlaced() {
			st.Unassigned++
		}
		if b.IsSigned {
			st.SignedCopies++
		}
		if b.IsFirstEdition {
			st.FirstEditions++
		}
	}
	for _, l := range s.Loans {
		if l.IsActive() {
			st.ActiveLoans++
		}
		if l.IsOverdue(now) {
			st.OverdueLoans++
		}
	}
	return st
}
