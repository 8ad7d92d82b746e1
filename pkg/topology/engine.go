package topology

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/braunma/netbox-topology/pkg/models"
)

// Engine validates every mutation against the current inventory and persists it in one
// unit of work. A rejected mutation leaves the store untouched.
type Engine struct {
	store    Store
	log      logrus.FieldLogger
	validate *validator.Validate
}

// NewEngine creates an engine on top of a store
func NewEngine(store Store, logger logrus.FieldLogger) *Engine {
	if logger == nil {
		l := logrus.New()
		l.SetLevel(logrus.WarnLevel)
		logger = l
	}
	return &Engine{
		store:    store,
		log:      logger.WithField("component", "topology"),
		validate: newValidator(),
	}
}

// newValidator reports field errors under their JSON names
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// checkFields runs the struct tag rules of obj
func (e *Engine) checkFields(obj any) *ValidationError {
	verr := NewValidationError()
	err := e.validate.Struct(obj)
	if err == nil {
		return verr
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		verr.Add("", "%s", err.Error())
		return verr
	}
	for _, fe := range fieldErrs {
		verr.Add(fe.Field(), "%s", fieldMessage(fe))
	}
	return verr
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "min", "gte":
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	case "max", "lte":
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
	case "gt":
		return fmt.Sprintf("Ensure this value is greater than %s.", fe.Param())
	case "oneof":
		return fmt.Sprintf("Value must be one of: %s.", fe.Param())
	}
	return fmt.Sprintf("Failed the %q rule.", fe.Tag())
}

// Snapshot runs fn against the committed inventory
func (e *Engine) Snapshot(ctx context.Context, fn func(inv *Inventory) error) error {
	return e.store.View(ctx, fn)
}

// persist creates obj when it has no ID yet, otherwise saves it over the stored copy
func persist(tx Tx, obj models.Object) error {
	if obj.GetID() == 0 {
		return tx.Create(obj)
	}
	if _, ok := tx.Inventory().Get(models.RefOf(obj)); !ok {
		return notFound(obj.ObjectType(), obj.GetID())
	}
	return tx.Save(obj)
}

// save is the common path of every validated write: field rules, domain rules, persist
func (e *Engine) save(ctx context.Context, obj models.Object, clean func(tx Tx) error, after func(tx Tx) error) error {
	if verr := e.checkFields(obj); verr.HasErrors() {
		return verr
	}
	created := obj.GetID() == 0
	err := e.store.Atomic(ctx, func(tx Tx) error {
		if clean != nil {
			if err := clean(tx); err != nil {
				return err
			}
		}
		if err := persist(tx, obj); err != nil {
			return err
		}
		if after != nil {
			return after(tx)
		}
		return nil
	})
	if err != nil {
		e.log.WithFields(logrus.Fields{
			"object_type": obj.ObjectType(),
			"object_id":   obj.GetID(),
		}).WithError(err).Debug("save rejected")
		if created {
			obj.SetID(0)
		}
		return err
	}
	e.log.WithFields(logrus.Fields{
		"object_type": obj.ObjectType(),
		"object_id":   obj.GetID(),
	}).Debug("saved")
	return nil
}

// requireRef records a field error when a referenced object is missing
func requireRef(verr *ValidationError, inv *Inventory, field, objectType string, id uint) bool {
	if _, ok := inv.Get(models.ObjectRef{Type: objectType, ID: id}); ok {
		return true
	}
	verr.Add(field, "Related object %s %d does not exist.", objectType, id)
	return false
}

func requireOptionalRef(verr *ValidationError, inv *Inventory, field, objectType string, id *uint) bool {
	if id == nil {
		return true
	}
	return requireRef(verr, inv, field, objectType, *id)
}
