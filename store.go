package configorm

// Store is the backing store a section resolves its values from.
//
// Section and attribute names are passed as declared; implementations are
// responsible for normalizing them. A nil value pointer means the attribute
// is present but holds no value. When envOverride is true, Read consults the
// environment variable named envsource.Key(section, attribute) before the
// store itself.
type Store interface {
	// Exists reports whether the store's backing state has been created.
	Exists() (bool, error)

	// Initialize creates empty backing state. It is a no-op when the state exists.
	Initialize() error

	// Read returns the raw text for section/attribute. ok is false when there is no value.
	Read(section, attribute string, envOverride bool) (value string, ok bool, err error)

	// Write stores value for section/attribute, replacing any previous value.
	Write(section, attribute string, value *string) error

	// SectionExists reports whether section is present.
	SectionExists(section string) (bool, error)

	// AttributeExists reports whether attribute is present in section.
	AttributeExists(section, attribute string) (bool, error)

	// CreateSection adds section. It is a no-op when the section exists.
	CreateSection(section string) error

	// CreateAttribute adds attribute with value. It is a no-op when the attribute exists.
	CreateAttribute(section, attribute string, value *string) error
}
