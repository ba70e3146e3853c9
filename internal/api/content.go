package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/aTrapDeer/portfolio-backend/internal/models"
	"github.com/aTrapDeer/portfolio-backend/internal/storage"
)

// resource binds one collection's storage calls to the generic handlers.
type resource[T, In any] struct {
	collection string
	noun       string
	// revalidate asks the frontend to rebuild after a successful mutation.
	revalidate bool

	list     func(context.Context) ([]T, error)
	get      func(context.Context, uint) (*T, error)
	create   func(context.Context, In) (*T, error)
	update   func(context.Context, uint, In) (*T, error)
	remove   func(context.Context, uint) error
	validate func(in In, partial bool) []models.FieldError
}

func (s *Server) projects() resource[models.Project, models.ProjectInput] {
	return resource[models.Project, models.ProjectInput]{
		collection: "projects",
		noun:       "Project",
		revalidate: true,
		list:       s.store.Projects,
		get:        s.store.GetProject,
		create:     s.store.CreateProject,
		update:     s.store.UpdateProject,
		remove:     s.store.DeleteProject,
		validate:   models.ProjectInput.Validate,
	}
}

func (s *Server) skills() resource[models.Skill, models.SkillInput] {
	return resource[models.Skill, models.SkillInput]{
		collection: "skills",
		noun:       "Skill",
		revalidate: true,
		list:       s.store.Skills,
		get:        s.store.GetSkill,
		create:     s.store.CreateSkill,
		update:     s.store.UpdateSkill,
		remove:     s.store.DeleteSkill,
		validate:   models.SkillInput.Validate,
	}
}

func (s *Server) experiences() resource[models.Experience, models.ExperienceInput] {
	return resource[models.Experience, models.ExperienceInput]{
		collection: "experiences",
		noun:       "Experience",
		revalidate: true,
		list:       s.store.Experiences,
		get:        s.store.GetExperience,
		create:     s.store.CreateExperience,
		update:     s.store.UpdateExperience,
		remove:     s.store.DeleteExperience,
		validate:   models.ExperienceInput.Validate,
	}
}

func (s *Server) messages() resource[models.Message, models.MessageInput] {
	return resource[models.Message, models.MessageInput]{
		collection: "messages",
		noun:       "Message",
		list:       s.store.Messages,
		get:        s.store.GetMessage,
		create:     s.store.CreateMessage,
		remove:     s.store.DeleteMessage,
		validate: func(in models.MessageInput, _ bool) []models.FieldError {
			return in.Validate()
		},
	}
}

// routeContent mounts public reads and admin writes for a content collection.
func routeContent[T, In any](s *Server, mux *http.ServeMux, res resource[T, In]) {
	base := "/api/" + res.collection
	admin := s.requireAdmin

	mux.Handle("GET "+base, s.handle(listHandler(res)))
	mux.Handle("GET "+base+"/{id}", s.handle(getHandler(res)))
	mux.Handle("POST "+base, admin(s.handle(createHandler(s, res))))
	mux.Handle("PUT "+base+"/{id}", admin(s.handle(updateHandler(s, res))))
	mux.Handle("PATCH "+base+"/{id}", admin(s.handle(updateHandler(s, res))))
	mux.Handle("DELETE "+base+"/{id}", admin(s.handle(deleteHandler(s, res))))
}

func listHandler[T, In any](res resource[T, In]) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		rows, err := res.list(r.Context())
		if err != nil {
			return internal("Failed to fetch "+res.collection, err)
		}
		writeJSON(w, http.StatusOK, rows)
		return nil
	}
}

func getHandler[T, In any](res resource[T, In]) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := pathID(r)
		if err != nil {
			return err
		}
		row, err := res.get(r.Context(), id)
		if err != nil {
			return res.storageError(err, "fetch")
		}
		writeJSON(w, http.StatusOK, row)
		return nil
	}
}

func createHandler[T, In any](s *Server, res resource[T, In]) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		var in In
		if err := s.decode(w, r, &in); err != nil {
			return err
		}
		if fields := res.validate(in, false); len(fields) > 0 {
			return invalid(fields)
		}
		row, err := res.create(r.Context(), in)
		if err != nil {
			return internal("Failed to create "+strings.ToLower(res.noun), err)
		}
		s.afterMutation(res.collection, res.revalidate)
		writeJSON(w, http.StatusCreated, envelope{
			Success: true,
			Message: res.noun + " created successfully",
			Data:    row,
		})
		return nil
	}
}

func updateHandler[T, In any](s *Server, res resource[T, In]) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := pathID(r)
		if err != nil {
			return err
		}
		var in In
		if err := s.decode(w, r, &in); err != nil {
			return err
		}
		if fields := res.validate(in, true); len(fields) > 0 {
			return invalid(fields)
		}
		row, err := res.update(r.Context(), id, in)
		if err != nil {
			return res.storageError(err, "update")
		}
		s.afterMutation(res.collection, res.revalidate)
		writeJSON(w, http.StatusOK, envelope{
			Success: true,
			Message: res.noun + " updated successfully",
			Data:    row,
		})
		return nil
	}
}

func deleteHandler[T, In any](s *Server, res resource[T, In]) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := pathID(r)
		if err != nil {
			return err
		}
		if err := res.remove(r.Context(), id); err != nil {
			return res.storageError(err, "delete")
		}
		s.afterMutation(res.collection, res.revalidate)
		w.WriteHeader(http.StatusNoContent)
		return nil
	}
}

func (res resource[T, In]) storageError(err error, verb string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return notFound(res.noun + " not found")
	}
	return internal("Failed to "+verb+" "+strings.ToLower(res.noun), err)
}

func (s *Server) afterMutation(collection string, revalidate bool) {
	if revalidate {
		s.notifier.TriggerAsync(collection)
	}
}

// pathID parses the {id} path value as a positive integer.
func pathID(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, strconv.IntSize)
	if err != nil || id == 0 {
		return 0, badRequest("Invalid ID")
	}
	return uint(id), nil
}

// decode reads a single JSON object from the size-capped request body.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return &Error{Status: http.StatusRequestEntityTooLarge, Message: "Request body too large"}
		}
		return badRequest("Invalid JSON body")
	}
	if dec.Decode(&struct{}{}) != io.EOF {
		return badRequest("Invalid JSON body")
	}
	return nil
}
