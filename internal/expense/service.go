package expense

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zombor/invoice-scanner/internal/scanning"
)

// Scanner turns an uploaded image into a scan outcome
type Scanner interface {
	Scan(ctx context.Context, upload scanning.Upload) scanning.Outcome
}

// Classifier sorts a purchase into a spending bucket
type Classifier interface {
	Classify(ctx context.Context, description string, price float64) (string, error)
}

// IDGenerator generates unique IDs for expenses and details
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultIDGenerator generates UUIDs
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return uuid.New().String()
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service handles expense operations
type Service struct {
	db          DB
	scanner     Scanner
	classifier  Classifier
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with default ID generator and time source
func NewService(db DB, scanner Scanner, classifier Classifier) *Service {
	return &Service{
		db:          db,
		scanner:     scanner,
		classifier:  classifier,
		idGenerator: &defaultIDGenerator{},
		timeSource:  &defaultTimeSource{},
	}
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, scanner Scanner, classifier Classifier, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		scanner:     scanner,
		classifier:  classifier,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// Scan runs an upload through the scan pipeline. Nothing is persisted.
func (s *Service) Scan(ctx context.Context, upload scanning.Upload) scanning.Outcome {
	return s.scanner.Scan(ctx, upload)
}

// Classify returns the spending bucket for a purchase
func (s *Service) Classify(ctx context.Context, description string, price float64) (string, error) {
	if s.classifier == nil {
		return "", fmt.Errorf("no classifier configured")
	}
	bucket, err := s.classifier.Classify(ctx, description, price)
	if err != nil {
		return "", fmt.Errorf("classifying expense: %w", err)
	}
	return bucket, nil
}

// CreateExpense validates the input and saves it as a new expense
func (s *Service) CreateExpense(in Input) (*Expense, error) {
	date, err := parseDate(in.Date)
	if err != nil {
		return nil, err
	}

	now := s.timeSource.Now()
	expense := &Expense{
		ID:        s.idGenerator.Generate(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.apply(expense, in, date)

	if err := s.db.SaveExpense(expense); err != nil {
		return nil, fmt.Errorf("saving expense: %w", err)
	}
	slog.Info("Expense created", "id", expense.ID, "supplier", expense.NameSupplier, "details", len(expense.Details))
	return expense, nil
}

// UpdateExpense replaces the editable fields of an existing expense
func (s *Service) UpdateExpense(id string, in Input) (*Expense, error) {
	date, err := parseDate(in.Date)
	if err != nil {
		return nil, err
	}

	expense, err := s.db.GetExpense(id)
	if err != nil {
		return nil, fmt.Errorf("getting expense for update: %w", err)
	}

	s.apply(expense, in, date)
	expense.UpdatedAt = s.timeSource.Now()

	if err := s.db.SaveExpense(expense); err != nil {
		return nil, fmt.Errorf("saving expense: %w", err)
	}
	return expense, nil
}

// GetExpense retrieves an expense by ID
func (s *Service) GetExpense(id string) (*Expense, error) {
	expense, err := s.db.GetExpense(id)
	if err != nil {
		return nil, fmt.Errorf("getting expense: %w", err)
	}
	return expense, nil
}

// ListExpenses returns all expenses, newest date first
func (s *Service) ListExpenses() ([]*Expense, error) {
	expenses, err := s.db.ListExpenses()
	if err != nil {
		return nil, fmt.Errorf("listing expenses: %w", err)
	}
	sort.SliceStable(expenses, func(i, j int) bool {
		if !expenses[i].Date.Equal(expenses[j].Date) {
			return expenses[i].Date.After(expenses[j].Date)
		}
		return expenses[i].CreatedAt.After(expenses[j].CreatedAt)
	})
	return expenses, nil
}

// DeleteExpense removes an expense
func (s *Service) DeleteExpense(id string) error {
	if _, err := s.db.GetExpense(id); err != nil {
		return fmt.Errorf("getting expense for deletion: %w", err)
	}
	if err := s.db.DeleteExpense(id); err != nil {
		return fmt.Errorf("deleting expense from database: %w", err)
	}
	return nil
}

// apply copies input fields onto an expense, keeping detail IDs assigned
// during scanning and generating the missing ones
func (s *Service) apply(expense *Expense, in Input, date time.Time) {
	expense.CodeReceipt = strings.TrimSpace(in.CodeReceipt)
	expense.NameSupplier = strings.TrimSpace(in.NameSupplier)
	expense.Note = strings.TrimSpace(in.Note)
	expense.Date = date
	expense.TotalPrice = in.TotalPrice
	expense.TaxPrice = in.TaxPrice

	expense.Details = make([]Detail, 0, len(in.Details))
	for _, d := range in.Details {
		if d.ID == "" {
			d.ID = s.idGenerator.Generate()
		}
		d.Category = string(scanning.CanonicalCategory(d.Category))
		if d.Quantity <= 0 {
			d.Quantity = 1
		}
		expense.Details = append(expense.Details, d)
	}
}

func parseDate(value string) (time.Time, error) {
	date, err := time.Parse("2006-01-02", strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
	}
	return date, nil
}
