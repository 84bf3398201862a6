package mockbackend

import (
	"sort"
	"sync"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Book is a catalog record.
type Book struct {
	ID            int32  `json:"id" yaml:"id"`
	Title         string `json:"title" yaml:"title"`
	Author        string `json:"author" yaml:"author"`
	ISBN          string `json:"isbn" yaml:"isbn"`
	PublishedYear int32  `json:"published_year" yaml:"published_year"`
}

// Member is a registered borrower.
type Member struct {
	ID    int32  `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Email string `json:"email" yaml:"email"`
	Phone string `json:"phone" yaml:"phone"`
}

// Loan links a book to a member. An empty ReturnedAt marks an active loan.
type Loan struct {
	ID         int32  `json:"id"`
	BookID     int32  `json:"book_id"`
	MemberID   int32  `json:"member_id"`
	BorrowedAt string `json:"borrowed_at"`
	DueAt      string `json:"due_at"`
	ReturnedAt string `json:"returned_at"`
}

// Store is the thread-safe in-memory state of the mock backend.
type Store struct {
	mu      sync.RWMutex
	books   map[int32]Book
	members map[int32]Member
	loans   map[int32]Loan
	lastID  struct{ book, member, loan int32 }
	now     func() time.Time
}

// NewStore returns an empty store using the wall clock.
func NewStore() *Store {
	return &Store{
		books:   make(map[int32]Book),
		members: make(map[int32]Member),
		loans:   make(map[int32]Loan),
		now:     time.Now,
	}
}

// SetClock replaces the time source used for loan timestamps.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// CreateBook inserts a book and assigns its identifier.
func (s *Store) CreateBook(b Book) (Book, error) {
	if b.Title == "" || b.Author == "" {
		return Book{}, status.Error(codes.InvalidArgument, "title and author are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastID.book++
	b.ID = s.lastID.book
	s.books[b.ID] = b
	return b, nil
}

// UpdateBook replaces an existing book.
func (s *Store) UpdateBook(b Book) (Book, error) {
	if b.ID <= 0 {
		return Book{}, status.Error(codes.InvalidArgument, "book id is required")
	}
	if b.Title == "" || b.Author == "" {
		return Book{}, status.Error(codes.InvalidArgument, "title and author are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.books[b.ID]; !ok {
		return Book{}, status.Error(codes.NotFound, "book not found")
	}
	s.books[b.ID] = b
	return b, nil
}

// ListBooks returns all books ordered by id.
func (s *Store) ListBooks() []Book {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Book, 0, len(s.books))
	for _, b := range s.books {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// CreateMember inserts a member and assigns its identifier.
func (s *Store) CreateMember(m Member) (Member, error) {
	if m.Name == "" {
		return Member{}, status.Error(codes.InvalidArgument, "name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastID.member++
	m.ID = s.lastID.member
	s.members[m.ID] = m
	return m, nil
}

// UpdateMember replaces an existing member.
func (s *Store) UpdateMember(m Member) (Member, error) {
	if m.ID <= 0 {
		return Member{}, status.Error(codes.InvalidArgument, "member id is required")
	}
	if m.Name == "" {
		return Member{}, status.Error(codes.InvalidArgument, "name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.members[m.ID]; !ok {
		return Member{}, status.Error(codes.NotFound, "member not found")
	}
	s.members[m.ID] = m
	return m, nil
}

// ListMembers returns all members ordered by id.
func (s *Store) ListMembers() []Member {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Member, 0, len(s.members))
	for _, m := range s.members {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// BorrowBook opens a loan. A book may have at most one active loan.
func (s *Store) BorrowBook(bookID, memberID int32, dueAt string) (Loan, error) {
	if bookID <= 0 || memberID <= 0 {
		return Loan{}, status.Error(codes.InvalidArgument, "book_id and member_id are required")
	}

	due := ""
	if dueAt != "" {
		parsed, err := parseTimestamp(dueAt)
		if err != nil {
			return Loan{}, status.Error(codes.InvalidArgument, "due_at must be ISO format")
		}
		due = parsed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.books[bookID]; !ok {
		return Loan{}, status.Error(codes.NotFound, "book not found")
	}
	if _, ok := s.members[memberID]; !ok {
		return Loan{}, status.Error(codes.NotFound, "member not found")
	}
	for _, l := range s.loans {
		if l.BookID == bookID && l.ReturnedAt == "" {
			return Loan{}, status.Error(codes.FailedPrecondition, "book already checked out")
		}
	}

	s.lastID.loan++
	loan := Loan{
		ID:         s.lastID.loan,
		BookID:     bookID,
		MemberID:   memberID,
		BorrowedAt: s.now().UTC().Format(time.RFC3339),
		DueAt:      due,
	}
	s.loans[loan.ID] = loan
	return loan, nil
}

// ReturnBook closes an active loan.
func (s *Store) ReturnBook(loanID int32) (Loan, error) {
	if loanID <= 0 {
		return Loan{}, status.Error(codes.InvalidArgument, "loan_id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	loan, ok := s.loans[loanID]
	if !ok || loan.ReturnedAt != "" {
		return Loan{}, status.Error(codes.NotFound, "loan not found or already returned")
	}
	loan.ReturnedAt = s.now().UTC().Format(time.RFC3339)
	s.loans[loanID] = loan
	return loan, nil
}

// ListBorrowedBooks returns a member's active loans, newest first.
func (s *Store) ListBorrowedBooks(memberID int32) ([]Loan, error) {
	if memberID <= 0 {
		return nil, status.Error(codes.InvalidArgument, "member_id is required")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Loan
	for _, l := range s.loans {
		if l.MemberID == memberID && l.ReturnedAt == "" {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// timestampLayouts are the accepted due_at forms. Inputs without a zone
// are rendered without one.
var timestampLayouts = []struct {
	in, out string
}{
	{time.RFC3339Nano, time.RFC3339},
	{"2006-01-02T15:04:05", "2006-01-02T15:04:05"},
	{"2006-01-02T15:04", "2006-01-02T15:04:05"},
	{"2006-01-02 15:04:05", "2006-01-02T15:04:05"},
	{"2006-01-02", "2006-01-02T15:04:05"},
}

func parseTimestamp(value string) (string, error) {
	var lastErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout.in, value)
		if err == nil {
			return t.Format(layout.out), nil
		}
		lastErr = err
	}
	return "", lastErr
}
