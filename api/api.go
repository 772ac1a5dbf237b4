// Package api serves recipes, imports, exports and shopping lists over HTTP.
package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"campkitchen/ent"
	"campkitchen/export"
	"campkitchen/importer"
	"campkitchen/shopping"
	"campkitchen/store"
)

type Server struct {
	repo store.Repository
	agg  *shopping.Aggregator
	log  logrus.FieldLogger
}

func New(repo store.Repository, agg *shopping.Aggregator, log logrus.FieldLogger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Server{repo: repo, agg: agg, log: log}
}

// App builds the fiber app. Access logs go to accessLog when it is set.
func (s *Server) App(accessLog io.Writer) *fiber.App {
	ws := fiber.New(fiber.Config{
		ErrorHandler:          ErrorHandler,
		DisableStartupMessage: true,
	})

	ws.Use(recover.New())
	if accessLog != nil {
		ws.Use(logger.New(logger.Config{Output: accessLog}))
	}
	ws.Use(cors.New())

	api := ws.Group("/api")

	api.Get("/recipes", s.listRecipes)
	api.Get("/recipes/:id", s.getRecipe)
	api.Delete("/recipes/:id", s.deleteRecipe)

	api.Post("/import/csv", s.importRecipes("csv", importer.CSV))
	api.Post("/import/card", s.importRecipes("card", importer.Card))

	api.Get("/export/csv", s.exportRecipes("text/csv; charset=utf-8", export.CSV))
	api.Get("/export/text", s.exportRecipes("text/plain; charset=utf-8", export.PlainText))

	api.Post("/shopping-list", s.shoppingList)

	return ws
}

// ErrorHandler maps error kinds to status codes and answers with
// {"error": "..."}.
func ErrorHandler(ctx *fiber.Ctx, err error) error {
	return ctx.Status(statusOf(err)).JSON(fiber.Map{"error": err.Error()})
}

func statusOf(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, ent.ErrInvalidArgument), errors.Is(err, ent.ErrMalformedInput):
		return http.StatusBadRequest
	case errors.Is(err, ent.ErrNotFound), errors.Is(err, ent.ErrMissingRecipe):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func paramID(ctx *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(ctx.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fiber.NewError(http.StatusBadRequest, "invalid recipe id")
	}
	return id, nil
}

func (s *Server) listRecipes(ctx *fiber.Ctx) error {
	rs, err := s.repo.FindAll(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(rs)
}

func (s *Server) getRecipe(ctx *fiber.Ctx) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}

	r, err := s.repo.FindByID(ctx.UserContext(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(r)
}

func (s *Server) deleteRecipe(ctx *fiber.Ctx) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx.UserContext(), id); err != nil {
		return err
	}
	return ctx.SendStatus(http.StatusNoContent)
}

type importFunc func(ctx context.Context, r io.Reader, creator importer.Creator, opts ...importer.Option) ([]ent.RecipeWithIngredients, error)

// importRecipes answers with the batch id and the recipes stored. A failed
// import still lists the recipes stored before the failure.
func (s *Server) importRecipes(kind string, run importFunc) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		batch := uuid.NewString()

		saved, err := run(ctx.UserContext(), bytes.NewReader(ctx.Body()), s.repo,
			importer.WithLogger(s.log), importer.WithBatch(batch))
		if err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{
				"import": kind,
				"batch":  batch,
				"saved":  len(saved),
			}).Warn("import failed")

			return ctx.Status(statusOf(err)).JSON(fiber.Map{
				"batch":   batch,
				"recipes": saved,
				"error":   err.Error(),
			})
		}

		return ctx.Status(http.StatusCreated).JSON(fiber.Map{
			"batch":   batch,
			"recipes": saved,
		})
	}
}

type exportFunc func(w io.Writer, recipes []ent.RecipeWithIngredients) error

func (s *Server) exportRecipes(contentType string, write exportFunc) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		rs, err := s.repo.FindAll(ctx.UserContext())
		if err != nil {
			return err
		}

		var buf bytes.Buffer
		if err := write(&buf, rs); err != nil {
			return err
		}

		ctx.Set(fiber.HeaderContentType, contentType)
		return ctx.Send(buf.Bytes())
	}
}

// shoppingListRequest combines explicit selections with the menu entries
// planned between From and To (YYYY-MM-DD, inclusive, both optional).
type shoppingListRequest struct {
	Selections []ent.RecipeSelection `json:"selections"`
	Menu       []ent.MenuEntry       `json:"menu"`
	From       string                `json:"from"`
	To         string                `json:"to"`
	Inventory  []ent.InventoryItem   `json:"inventory"`
}

func parseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fiber.NewError(http.StatusBadRequest, "invalid date "+strconv.Quote(s))
	}
	return t, nil
}

func (s *Server) shoppingList(ctx *fiber.Ctx) error {
	var req shoppingListRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	from, err := parseDay(req.From)
	if err != nil {
		return err
	}
	to, err := parseDay(req.To)
	if err != nil {
		return err
	}

	selections := req.Selections
	if len(req.Menu) > 0 {
		planned, err := shopping.SelectionsFromMenu(req.Menu, from, to)
		if err != nil {
			return err
		}
		selections = append(selections, planned...)
	}

	items, err := s.agg.Generate(ctx.UserContext(), selections, s.repo.FindByID)
	if err != nil {
		return err
	}

	if len(req.Inventory) > 0 {
		items, err = s.agg.Subtract(items, req.Inventory)
		if err != nil {
			return err
		}
	}

	return ctx.JSON(items)
}
