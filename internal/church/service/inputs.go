package service

import (
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"church-portal/internal/church/domain"
)

// FormTimeLayout is the layout browsers submit for datetime-local inputs.
const FormTimeLayout = "2006-01-02T15:04"

// formDateLayout is the layout of date inputs.
const formDateLayout = "2006-01-02"

// EventInput is the create-event form.
type EventInput struct {
	Title       string
	Description string
	Type        string
	Location    string
	Start       string
	End         string
	Visibility  string
}

func (in EventInput) build() (*domain.Event, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, domain.Invalid("title", "title is required")
	}
	start, err := time.Parse(FormTimeLayout, strings.TrimSpace(in.Start))
	if err != nil {
		return nil, domain.Invalid("start", "start time is required")
	}
	e := &domain.Event{
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Type:        domain.EventOther,
		Location:    strings.TrimSpace(in.Location),
		StartTime:   start.UTC(),
		Visibility:  domain.VisibilityMembers,
	}
	if in.Type != "" {
		t := domain.EventType(strings.ToUpper(in.Type))
		if !slices.Contains(domain.EventTypes(), t) {
			return nil, domain.Invalid("type", "unknown event type")
		}
		e.Type = t
	}
	switch v := domain.Visibility(strings.ToUpper(in.Visibility)); v {
	case "":
	case domain.VisibilityPublic, domain.VisibilityMembers, domain.VisibilityAdmin:
		e.Visibility = v
	default:
		return nil, domain.Invalid("visibility", "unknown visibility")
	}
	if s := strings.TrimSpace(in.End); s != "" {
		end, err := time.Parse(FormTimeLayout, s)
		if err != nil {
			return nil, domain.Invalid("end", "end time is not a valid time")
		}
		if end.Before(start) {
			return nil, domain.Invalid("end", "end time is before start time")
		}
		end = end.UTC()
		e.EndTime = &end
	}
	return e, nil
}

// InventoryInput is the add-item form. Value is in dollars.
type InventoryInput struct {
	Name        string
	Category    string
	Quantity    string
	Unit        string
	Location    string
	Condition   string
	Value       string
	Notes       string
	LastChecked string
}

func (in InventoryInput) build() (*domain.InventoryItem, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.Invalid("name", "name is required")
	}
	item := &domain.InventoryItem{
		Name:      name,
		Category:  strings.TrimSpace(in.Category),
		Quantity:  1,
		Unit:      strings.TrimSpace(in.Unit),
		Location:  strings.TrimSpace(in.Location),
		Condition: domain.ConditionGood,
		Notes:     strings.TrimSpace(in.Notes),
	}
	if q, ok, err := optionalInt(in.Quantity); err != nil || (ok && q < 0) {
		return nil, domain.Invalid("quantity", "quantity must be a whole number")
	} else if ok {
		item.Quantity = q
	}
	if in.Condition != "" {
		c := domain.Condition(strings.ToLower(in.Condition))
		if !slices.Contains(domain.Conditions(), c) {
			return nil, domain.Invalid("condition", "unknown condition")
		}
		item.Condition = c
	}
	if s := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(in.Value), "$")); s != "" {
		dollars, err := strconv.ParseFloat(s, 64)
		if err != nil || dollars < 0 {
			return nil, domain.Invalid("value", "value must be an amount")
		}
		cents := int64(math.Round(dollars * 100))
		item.ValueCents = &cents
	}
	if s := strings.TrimSpace(in.LastChecked); s != "" {
		d, err := time.Parse(formDateLayout, s)
		if err != nil {
			return nil, domain.Invalid("last_checked", "last checked must be a date")
		}
		item.LastChecked = &d
	}
	return item, nil
}

// FileInput is the register-file form.
type FileInput struct {
	Name     string
	Kind     string
	Category string
	Size     string
}

func (in FileInput) build() (*domain.File, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.Invalid("name", "name is required")
	}
	f := &domain.File{
		Name:     name,
		Kind:     domain.KindDocument,
		Category: strings.TrimSpace(in.Category),
	}
	if in.Kind != "" {
		k := domain.FileKind(strings.ToLower(in.Kind))
		if !slices.Contains(domain.FileKinds(), k) {
			return nil, domain.Invalid("kind", "unknown file type")
		}
		f.Kind = k
	}
	if s := strings.TrimSpace(in.Size); s != "" && f.Kind != domain.KindFolder {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil || n < 0 {
			return nil, domain.Invalid("size", "size must be a number of bytes")
		}
		f.SizeBytes = &n
	}
	return f, nil
}

// ChurchInput is the church information form.
type ChurchInput struct {
	Name         string
	Address      string
	City         string
	State        string
	Zip          string
	Phone        string
	Email        string
	Website      string
	Denomination string
}

func (in ChurchInput) apply(c *domain.Church) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Invalid("name", "church name is required")
	}
	state, err := normalizeState(in.State)
	if err != nil {
		return err
	}
	c.Name = name
	c.Address = strings.TrimSpace(in.Address)
	c.City = strings.TrimSpace(in.City)
	c.State = state
	c.Zip = strings.TrimSpace(in.Zip)
	c.Phone = strings.TrimSpace(in.Phone)
	c.Email = strings.TrimSpace(in.Email)
	c.Website = strings.TrimSpace(in.Website)
	c.Denomination = strings.TrimSpace(in.Denomination)
	return nil
}

// ApplicationInput is the church application form. Numeric fields are parsed when present.
type ApplicationInput struct {
	ApplicantName  string
	ApplicantEmail string
	ApplicantPhone string
	ApplicantTitle string

	ChurchName         string
	ChurchAddress      string
	ChurchCity         string
	ChurchState        string
	ChurchZip          string
	ChurchPhone        string
	ChurchEmail        string
	ChurchWebsite      string
	ChurchDenomination string
	ChurchFoundedYear  string
	CongregationSize   string
	CurrentSoftware    string

	LeadershipPosition string
	YearsInPosition    string
	VerificationMethod string
	Motivation         string
	CurrentChallenges  string
}

func normalizeState(s string) (string, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return "", nil
	}
	if !domain.ValidState(s) {
		return "", domain.Invalid("state", "state must be a two-letter US state code")
	}
	return s, nil
}

// optionalInt parses s when it is not blank. ok is false for blank input.
func optionalInt(s string) (n int, ok bool, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false, nil
	}
	n, err = strconv.Atoi(s)
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}

func optionalIntField(field, s string) (*int, error) {
	n, ok, err := optionalInt(s)
	if err != nil || (ok && n < 0) {
		return nil, domain.Invalid(field, "must be a whole number")
	}
	if !ok {
		return nil, nil
	}
	return &n, nil
}
