// Package wallet composes Apple Wallet passes from a static template
// and signs them into distributable pkpass bundles.
package wallet

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/coverly/warranty-desk/internal/sanitize"
)

// SubjectProfile parametrizes one pass. DisplayName may be nil when
// the account has no name on file.
type SubjectProfile struct {
	ID          string  `json:"id"`
	DisplayName *string `json:"display_name"`
	Email       string  `json:"email"`
	ItemCount   int     `json:"item_count"`
}

// Field is one labeled value on the pass face or back.
type Field struct {
	Key   string `json:"key"`
	Label string `json:"label,omitempty"`
	Value string `json:"value"`
}

// Barcode is the scannable payload block of the pass.
type Barcode struct {
	Format          string `json:"format"`
	Message         string `json:"message"`
	MessageEncoding string `json:"messageEncoding"`
}

// FieldSet groups the generic pass style's field lists. Order within
// each list is the display order and is preserved by composition.
type FieldSet struct {
	PrimaryFields   []Field `json:"primaryFields,omitempty"`
	SecondaryFields []Field `json:"secondaryFields,omitempty"`
	AuxiliaryFields []Field `json:"auxiliaryFields,omitempty"`
	BackFields      []Field `json:"backFields,omitempty"`
}

// Pass mirrors the pass.json document structure.
type Pass struct {
	FormatVersion       int      `json:"formatVersion"`
	PassTypeIdentifier  string   `json:"passTypeIdentifier"`
	TeamIdentifier      string   `json:"teamIdentifier"`
	OrganizationName    string   `json:"organizationName"`
	Description         string   `json:"description"`
	SerialNumber        string   `json:"serialNumber"`
	AuthenticationToken string   `json:"authenticationToken"`
	LogoText            string   `json:"logoText,omitempty"`
	ForegroundColor     string   `json:"foregroundColor,omitempty"`
	BackgroundColor     string   `json:"backgroundColor,omitempty"`
	LabelColor          string   `json:"labelColor,omitempty"`
	Barcode             *Barcode `json:"barcode,omitempty"`
	Generic             FieldSet `json:"generic"`
}

// Composer builds passes for one pass type. The identifiers come from
// configuration and are constant across requests.
type Composer struct {
	PassTypeIdentifier string
	TeamIdentifier     string
	Organization       string
}

// NewComposer creates a Composer with the configured identifiers.
func NewComposer(passType, team, organization string) *Composer {
	return &Composer{
		PassTypeIdentifier: passType,
		TeamIdentifier:     team,
		Organization:       organization,
	}
}

// baseTemplate returns a fresh copy of the static pass layout. Each
// call allocates new field slices, so callers may patch the result
// without affecting other requests.
func (c *Composer) baseTemplate() Pass {
	return Pass{
		FormatVersion:      1,
		PassTypeIdentifier: c.PassTypeIdentifier,
		TeamIdentifier:     c.TeamIdentifier,
		OrganizationName:   c.Organization,
		Description:        c.Organization + " Warranty Card",
		LogoText:           c.Organization,
		ForegroundColor:    "rgb(255, 255, 255)",
		BackgroundColor:    "rgb(32, 48, 96)",
		LabelColor:         "rgb(170, 190, 230)",
		Generic: FieldSet{
			PrimaryFields: []Field{
				{Key: "card", Label: "WARRANTY CARD", Value: c.Organization},
			},
			SecondaryFields: []Field{
				{Key: "status", Label: "STATUS", Value: "Active"},
				{Key: "items", Label: "PROTECTED ITEMS", Value: "0"},
			},
			BackFields: []Field{
				{
					Key:   "about",
					Label: "About",
					Value: "This card tracks your registered products and their warranty coverage.",
				},
				{
					Key:   "features",
					Label: "Features",
					Value: "Receipt capture, claim packet generation, expiration reminders.",
				},
				{
					Key:   "support",
					Label: "Support",
					Value: "support@coverly.example",
				},
			},
		},
	}
}

// replaceField returns fields with any entry sharing f's key removed
// and f appended. Relative order of the surviving entries is kept.
func replaceField(fields []Field, f Field) []Field {
	out := make([]Field, 0, len(fields)+1)
	for _, existing := range fields {
		if existing.Key != f.Key {
			out = append(out, existing)
		}
	}
	return append(out, f)
}

// Compose produces the pass for one subject: template copy, serial
// number and barcode payload from the subject ID, the item-count
// field patched in place, and an account block on the back. Each
// pass gets a fresh authentication token.
func (c *Composer) Compose(profile SubjectProfile) Pass {
	pass := c.baseTemplate()

	pass.SerialNumber = profile.ID
	pass.AuthenticationToken = uuid.NewString()
	pass.Barcode = &Barcode{
		Format:          "PKBarcodeFormatQR",
		Message:         profile.ID,
		MessageEncoding: "iso-8859-1",
	}

	pass.Generic.SecondaryFields = replaceField(pass.Generic.SecondaryFields, Field{
		Key:   "items",
		Label: "PROTECTED ITEMS",
		Value: fmt.Sprintf("%d", profile.ItemCount),
	})

	holder := sanitize.Clean(profile.Email)
	if profile.DisplayName != nil {
		if name := sanitize.Clean(*profile.DisplayName); name != "" {
			holder = name + " (" + holder + ")"
		}
	}
	pass.Generic.BackFields = append(pass.Generic.BackFields, Field{
		Key:   "account",
		Label: "Account",
		Value: holder,
	})

	return pass
}
