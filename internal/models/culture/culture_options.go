package culture

import "time"

type CultureOption func(*Culture)

func WithName(name string) CultureOption {
	return func(c *Culture) {
		c.Name = name
	}
}

func WithCellType(cellType string) CultureOption {
	return func(c *Culture) {
		c.CellType = cellType
	}
}

func WithNotes(notes string) CultureOption {
	return func(c *Culture) {
		c.Notes = notes
	}
}

func WithStatus(status Status) CultureOption {
	return func(c *Culture) {
		c.Status = status
	}
}

func WithStartDate(start time.Time) CultureOption {
	if start.IsZero() {
		return nil
	}
	return func(c *Culture) {
		c.StartDate = start
	}
}

// WithPassageNumber ручная правка счётчика. Проверка "не меньше текущего" делается в сервисе.
func WithPassageNumber(n int) CultureOption {
	return func(c *Culture) {
		c.PassageNumber = n
	}
}

func (c *Culture) Apply(options ...CultureOption) {
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}
}
