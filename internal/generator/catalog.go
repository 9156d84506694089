package generator

import (
	"strings"

	"github.com/toyz/scaffold/internal/errors"
	"github.com/toyz/scaffold/internal/utils"
)

// Catalog holds the descriptors node specs can name
type Catalog struct {
	*utils.BaseRegistry[string, *Descriptor]
}

// NewCatalog creates an empty catalog rejecting duplicate generator names
func NewCatalog() *Catalog {
	base := utils.NewBaseRegistry[string, *Descriptor]("generator", "generator")
	base.SetValidator(utils.ChainValidators(
		utils.NotEmptyKeyValidator[*Descriptor]("generator name"),
		utils.NoDuplicateValidator[string, *Descriptor]("generator"),
	))
	return &Catalog{BaseRegistry: base}
}

// Add validates and registers descriptors
func (c *Catalog) Add(descriptors ...*Descriptor) error {
	for _, d := range descriptors {
		if err := d.Validate(); err != nil {
			return err
		}
		if err := c.Register(d.Name, d); err != nil {
			return errors.Wrap(errors.ConfigurationErrorCode, "failed to register generator", err).
				WithContext("generator", d.Name)
		}
	}
	return nil
}

// MustAdd is like Add but panics. For catalogs compiled into the binary.
func (c *Catalog) MustAdd(descriptors ...*Descriptor) *Catalog {
	if err := c.Add(descriptors...); err != nil {
		panic(err)
	}
	return c
}

// Lookup returns the descriptor registered under name
func (c *Catalog) Lookup(name string) (*Descriptor, error) {
	d, ok := c.Get(name)
	if !ok {
		return nil, errors.Newf(errors.ConfigurationErrorCode, "unknown generator '%s'", name).
			WithContext("generator", name).
			WithSuggestion("Available generators: " + strings.Join(c.List(), ", "))
	}
	return d, nil
}

