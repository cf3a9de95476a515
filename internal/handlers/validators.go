package handlers

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/yukikurage/teamtask-api/internal/models"
)

// RegisterValidators adds the enum binding tags used by request structs.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}

	rules := map[string]func(string) bool{
		"domain":         func(s string) bool { return models.Domain(s).Valid() },
		"department":     func(s string) bool { return models.Department(s).Valid() },
		"task_status":    func(s string) bool { return models.TaskStatus(s).Valid() },
		"task_priority":  func(s string) bool { return models.TaskPriority(s).Valid() },
		"project_status": func(s string) bool { return models.ProjectStatus(s).Valid() },
		"role":           func(s string) bool { return models.Role(s).Valid() },
	}
	for tag, valid := range rules {
		valid := valid
		if err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return valid(fl.Field().String())
		}); err != nil {
			return err
		}
	}
	return nil
}
