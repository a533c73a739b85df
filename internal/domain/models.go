package domain

type Book struct {
	ID            string `db:"id" json:"id"`
	Title         string `db:"title" json:"title"`
	Author        string `db:"author" json:"author"`
	PublishedYear int    `db:"published_year" json:"publishedYear"`
	Genre         string `db:"genre" json:"genre"`
	IsAvailable   bool   `db:"is_available" json:"isAvailable"`
	CreatedAt     string `db:"created_at" json:"createdAt"`
	UpdatedAt     string `db:"updated_at" json:"updatedAt,omitempty"`

	// Populated by the catalog's eager listing, not a column.
	Borrows []Borrow `db:"-" json:"borrows,omitempty"`
}

// Borrow is one loan of a Book to a User. ReturnDate nil means the loan is
// still open; once set it is never cleared.
type Borrow struct {
	ID         string  `db:"id" json:"id"`
	UserID     string  `db:"user_id" json:"userId"`
	BookID     string  `db:"book_id" json:"bookId"`
	BorrowDate string  `db:"borrow_date" json:"borrowDate"`
	ReturnDate *string `db:"return_date" json:"returnDate"`
	CreatedAt  string  `db:"created_at" json:"createdAt"`
	UpdatedAt  string  `db:"updated_at" json:"updatedAt,omitempty"`

	User *SafeUser `db:"-" json:"user,omitempty"`
	Book *Book     `db:"-" json:"book,omitempty"`
}

// Open reports whether the loan has not been returned yet.
func (b Borrow) Open() bool { return b.ReturnDate == nil }
