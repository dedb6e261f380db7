package forms

import (
	"encoding/json"
	"log"

	"formhive-backend/src/models"
)

// codec.go is the only place allowed to interpret the JSON blobs of a
// FormDocument. Everything else works with the typed models.Form.

// SerializeForm converts an in-memory form into its persistable record.
// Each structured sub-object is stored as an opaque JSON blob.
func SerializeForm(form *models.Form) *models.FormDocument {
	return &models.FormDocument{
		ID:               form.ID,
		CompanyID:        form.CompanyID,
		Title:            form.Title,
		Description:      form.Description,
		Status:           form.Status,
		Version:          form.Version,
		Fields:           marshalBlob("fields", form.Fields),
		Steps:            marshalBlob("steps", form.Steps),
		ConditionalLogic: marshalBlob("conditionalLogic", form.ConditionalLogic),
		Settings:         marshalBlob("settings", form.Settings),
		Theme:            marshalBlob("theme", form.Theme),
		AccessControl:    marshalBlob("accessControl", form.AccessControl),
		Metadata:         marshalBlob("metadata", form.Metadata),
		CreatedBy:        form.CreatedBy,
		CreatedAt:        form.CreatedAt,
		UpdatedAt:        form.UpdatedAt,
	}
}

// DeserializeForm is the inverse of SerializeForm. A missing or corrupt
// blob does not fail the whole document: it is logged and replaced with an
// empty default so the rest of the form stays usable.
func DeserializeForm(doc *models.FormDocument) *models.Form {
	form := &models.Form{
		ID:          doc.ID,
		CompanyID:   doc.CompanyID,
		Title:       doc.Title,
		Description: doc.Description,
		Status:      doc.Status,
		Version:     doc.Version,
		CreatedBy:   doc.CreatedBy,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}

	unmarshalBlob(doc.ID.Hex(), "fields", doc.Fields, &form.Fields)
	unmarshalBlob(doc.ID.Hex(), "steps", doc.Steps, &form.Steps)
	unmarshalBlob(doc.ID.Hex(), "conditionalLogic", doc.ConditionalLogic, &form.ConditionalLogic)
	unmarshalBlob(doc.ID.Hex(), "settings", doc.Settings, &form.Settings)
	unmarshalBlob(doc.ID.Hex(), "theme", doc.Theme, &form.Theme)
	unmarshalBlob(doc.ID.Hex(), "accessControl", doc.AccessControl, &form.AccessControl)
	unmarshalBlob(doc.ID.Hex(), "metadata", doc.Metadata, &form.Metadata)

	return form
}

// SerializeMetadata re-serializes just the metadata blob, used for the
// denormalized counter updates at submit time.
func SerializeMetadata(m models.FormMetadata) string {
	return marshalBlob("metadata", m)
}

func marshalBlob(name string, v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("⚠️ failed to serialize form %s: %v", name, err)
		return ""
	}
	return string(data)
}

// unmarshalBlob parses one blob into out, leaving out at its zero value
// when the blob is missing or corrupt.
func unmarshalBlob(formID, name, blob string, out interface{}) {
	if blob == "" {
		return
	}
	if err := json.Unmarshal([]byte(blob), out); err != nil {
		log.Printf("⚠️ form %s: corrupt %s blob, using empty default: %v", formID, name, err)
	}
}
