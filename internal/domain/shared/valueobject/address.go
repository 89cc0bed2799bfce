package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Address is a UK postal address used for dealer branding and customer details
type Address struct {
	line1    string
	line2    string
	town     string
	county   string
	postcode string
}

// NewAddress creates an address. Line 1 and postcode are required.
func NewAddress(line1, line2, town, county, postcode string) (Address, error) {
	a := Address{
		line1:    strings.TrimSpace(line1),
		line2:    strings.TrimSpace(line2),
		town:     strings.TrimSpace(town),
		county:   strings.TrimSpace(county),
		postcode: strings.ToUpper(strings.TrimSpace(postcode)),
	}
	if a.line1 == "" {
		return Address{}, errors.New("address line 1 is required")
	}
	if a.postcode == "" {
		return Address{}, errors.New("postcode is required")
	}
	if len(a.postcode) > 8 {
		return Address{}, fmt.Errorf("postcode %q is too long", a.postcode)
	}
	return a, nil
}

func (a Address) Line1() string    { return a.line1 }
func (a Address) Line2() string    { return a.line2 }
func (a Address) Town() string     { return a.town }
func (a Address) County() string   { return a.county }
func (a Address) Postcode() string { return a.postcode }

// IsEmpty returns true if no line 1 is set
func (a Address) IsEmpty() bool {
	return a.line1 == ""
}

// Lines returns the non-empty address lines in print order
func (a Address) Lines() []string {
	lines := make([]string, 0, 5)
	for _, s := range []string{a.line1, a.line2, a.town, a.county, a.postcode} {
		if s != "" {
			lines = append(lines, s)
		}
	}
	return lines
}

// String joins the address on one line
func (a Address) String() string {
	return strings.Join(a.Lines(), ", ")
}

type addressJSON struct {
	Line1    string `json:"line1"`
	Line2    string `json:"line2,omitempty"`
	Town     string `json:"town,omitempty"`
	County   string `json:"county,omitempty"`
	Postcode string `json:"postcode"`
}

// MarshalJSON implements json.Marshaler
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(addressJSON{
		Line1:    a.line1,
		Line2:    a.line2,
		Town:     a.town,
		County:   a.county,
		Postcode: a.postcode,
	})
}

// UnmarshalJSON implements json.Unmarshaler. An empty object yields an empty address.
func (a *Address) UnmarshalJSON(data []byte) error {
	var v addressJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v.Line1 == "" && v.Postcode == "" {
		*a = Address{}
		return nil
	}
	parsed, err := NewAddress(v.Line1, v.Line2, v.Town, v.County, v.Postcode)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Value implements driver.Valuer, storing the address as JSON
func (a Address) Value() (driver.Value, error) {
	if a.IsEmpty() {
		return nil, nil
	}
	b, err := a.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (a *Address) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*a = Address{}
		return nil
	case []byte:
		return a.UnmarshalJSON(v)
	case string:
		return a.UnmarshalJSON([]byte(v))
	default:
		return fmt.Errorf("cannot scan %T into Address", value)
	}
}
