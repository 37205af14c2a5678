package tree

import (
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"linkvault/internal/config"
	"linkvault/internal/domain"
)

// validateName trims name and checks it is non-blank and within limits.
func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	err := validation.Validate(name,
		validation.Required.Error("name cannot be blank"),
		validation.RuneLength(1, config.MaxNameLength),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return name, nil
}

type fileInput struct {
	Name string
	Link string
}

func (in *fileInput) validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Link = strings.TrimSpace(in.Link)
	err := validation.ValidateStruct(in,
		validation.Field(&in.Name,
			validation.Required,
			validation.RuneLength(1, config.MaxNameLength),
		),
		validation.Field(&in.Link,
			validation.Required,
			validation.RuneLength(1, config.MaxLinkLength),
		),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}
