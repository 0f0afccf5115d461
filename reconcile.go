package configorm

import (
	"go.uber.org/zap"
)

// CheckIntegrity brings the stores of s and its direct children up to the
// declared schema. It creates missing stores, sections and attributes, seeding
// new attributes with their default text. Existing values are never touched.
// The first store failure aborts the run; work already done is kept.
func (s *Section) CheckIntegrity() error {
	md := s.Metadata()
	if md == nil {
		return ErrUnbound
	}
	log := md.logger

	if err := ensureStore(md); err != nil {
		return err
	}

	var sections, attributes int
	for _, child := range md.children {
		if err := ensureStore(child); err != nil {
			return err
		}

		store := child.store
		exists, err := store.SectionExists(child.identifier)
		if err != nil {
			return &StoreError{Op: "section_exists", Section: child.identifier, Err: err}
		}
		if !exists {
			if err := store.CreateSection(child.identifier); err != nil {
				return &StoreError{Op: "create_section", Section: child.identifier, Err: err}
			}
			sections++
			log.Info("created section", zap.String("section", child.identifier))
		}

		for _, name := range child.order {
			f := child.fields[name]
			exists, err := store.AttributeExists(child.identifier, name)
			if err != nil {
				return &StoreError{Op: "attribute_exists", Section: child.identifier, Attribute: name, Err: err}
			}
			if exists {
				continue
			}

			value := f.defaultText()
			if err := store.CreateAttribute(child.identifier, name, value); err != nil {
				return &StoreError{Op: "create_attribute", Section: child.identifier, Attribute: name, Err: err}
			}
			attributes++
			log.Info("created attribute",
				zap.String("section", child.identifier),
				zap.String("attribute", name),
				zap.Bool("seeded", value != nil))
		}
	}

	log.Info("integrity check complete",
		zap.String("root", md.identifier),
		zap.Int("children", len(md.children)),
		zap.Int("sections_created", sections),
		zap.Int("attributes_created", attributes))
	return nil
}

func ensureStore(md *Metadata) error {
	exists, err := md.store.Exists()
	if err != nil {
		return &StoreError{Op: "exists", Section: md.identifier, Err: err}
	}
	if exists {
		return nil
	}
	if err := md.store.Initialize(); err != nil {
		return &StoreError{Op: "initialize", Section: md.identifier, Err: err}
	}
	md.logger.Info("initialized store", zap.String("section", md.identifier))
	return nil
}
