package httpapi

import (
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/nat12323/race-weather-tracker/internal/auth"
	"github.com/nat12323/race-weather-tracker/internal/geocode"
	"github.com/nat12323/race-weather-tracker/internal/race"
	"github.com/nat12323/race-weather-tracker/internal/store"
)

var validate = validator.New()

// Deps bundles the collaborators the HTTP layer needs. Build it with NewDeps:
// the aggregation service must read from the same store that backs the CRUD
// routes, otherwise /allraces and /aggregated silently drift apart.
type Deps struct {
	Service *race.Service
	Races   store.RaceStore
	Users   store.UserStore
	Tokens  *auth.TokenManager

	// Geo is optional; when nil, submitted races keep their location fields
	// as given.
	Geo *geocode.Resolver
}

// NewDeps derives the aggregation service from the CRUD store so the two can
// never be wired to different backends. external may be nil (no third-party
// contribution) and geo may be nil (no reverse geocoding).
func NewDeps(races store.RaceStore, users store.UserStore, tokens *auth.TokenManager,
	external race.ExternalSource, cacheTTL time.Duration, geo *geocode.Resolver) Deps {
	return Deps{
		Service: race.NewService(races, external, cacheTTL),
		Races:   races,
		Users:   users,
		Tokens:  tokens,
		Geo:     geo,
	}
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	v1 := app.Group("/api")

	registerAuthRoutes(v1, deps.Users, deps.Tokens)

	r := v1.Group("/race", RequireAuth(deps.Tokens))

	r.Get("/allraces", func(c *fiber.Ctx) error {
		races, err := deps.Races.ListAll(c.Context())
		if err != nil {
			log.Printf("list races failed: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch races")
		}
		if races == nil {
			races = []race.Race{}
		}
		return c.JSON(races)
	})

	// The combined database + external listing, run through the filter engine.
	// Facet counts always cover the unfiltered set.
	r.Get("/aggregated", func(c *fiber.Ctx) error {
		criteria, err := parseCriteria(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		all, err := deps.Service.Aggregate(c.Context())
		if err != nil {
			log.Printf("aggregation failed: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch races")
		}

		filtered := race.Filter(all, criteria, time.Now())
		return c.JSON(fiber.Map{
			"races": filtered,
			"total": len(all),
			"count": len(filtered),
		})
	})

	// Filter option lists for the UI, with counts over the full set.
	r.Get("/filters", func(c *fiber.Ctx) error {
		all, err := deps.Service.Aggregate(c.Context())
		if err != nil {
			log.Printf("aggregation failed: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch races")
		}
		return c.JSON(fiber.Map{
			"types":  race.TypeOptions(all),
			"states": race.StateOptions(all),
		})
	})

	// Whether a forecast exists yet for the race's date, and where to find it.
	r.Get("/forecast/:id", func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}

		rc, err := deps.Races.GetByID(c.Context(), id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Race not found")
			}
			log.Printf("get race failed: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch race")
		}
		if rc.RaceDate == nil {
			return c.JSON(fiber.Map{
				"ready":  false,
				"notice": "Race has no date; forecast unavailable",
			})
		}

		if !race.ForecastReady(*rc.RaceDate, time.Now(), race.DefaultForecastThresholdDays) {
			return c.JSON(fiber.Map{
				"ready":  false,
				"notice": "Weather forecast is not yet available for this race date",
			})
		}
		return c.JSON(fiber.Map{
			"ready":        true,
			"forecast_url": race.ForecastURL(rc.Latitude, rc.Longitude),
		})
	})

	r.Post("/createrace", func(c *fiber.Ctx) error {
		params, err := parseRacePayload(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		fillLocation(deps.Geo, &params)

		created, err := deps.Races.Create(c.Context(), params)
		if err != nil {
			log.Printf("create race failed: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to create race")
		}
		return c.Status(fiber.StatusCreated).JSON(created)
	})

	r.Put("/updaterace/:id", func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		params, err := parseRacePayload(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		updated, err := deps.Races.Update(c.Context(), id, params)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Race not found")
			}
			log.Printf("update race failed: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to update race")
		}
		return c.JSON(updated)
	})

	r.Delete("/deleterace/:id", func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}

		deleted, err := deps.Races.Delete(c.Context(), id)
		if err != nil {
			log.Printf("delete race failed: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to delete race")
		}
		if !deleted {
			return fiber.NewError(fiber.StatusNotFound, "Could not find race to delete")
		}
		return c.JSON(fiber.Map{"message": "Race deleted successfully."})
	})

	// Registered last so the static paths above keep precedence.
	r.Get("/:id", func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}

		rc, err := deps.Races.GetByID(c.Context(), id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Race not found")
			}
			log.Printf("get race failed: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch race")
		}
		return c.JSON(rc)
	})
}

// racePayload holds the persisted race fields for create and update. Latitude
// and longitude are pointers so zero coordinates still count as provided.
type racePayload struct {
	Name        string   `json:"race_name" validate:"required"`
	Type        string   `json:"race_type"`
	RaceDate    string   `json:"race_date" validate:"required"`
	Latitude    *float64 `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude   *float64 `json:"longitude" validate:"required,gte=-180,lte=180"`
	City        string   `json:"city"`
	State       string   `json:"state"`
	Address     string   `json:"address"`
	Description string   `json:"description"`
	WebsiteURL  string   `json:"website_url"`
}

func parseRacePayload(c *fiber.Ctx) (store.RaceParams, error) {
	var req racePayload
	if err := c.BodyParser(&req); err != nil {
		return store.RaceParams{}, errors.New("invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return store.RaceParams{}, err
	}

	date, err := parseDate(req.RaceDate)
	if err != nil {
		return store.RaceParams{}, err
	}

	return store.RaceParams{
		Name:        req.Name,
		Type:        req.Type,
		RaceDate:    date,
		Latitude:    *req.Latitude,
		Longitude:   *req.Longitude,
		City:        req.City,
		State:       req.State,
		Address:     req.Address,
		Description: req.Description,
		WebsiteURL:  req.WebsiteURL,
	}, nil
}

// fillLocation reverse-geocodes missing city/state from the coordinates.
// Failures only log; the submission stands without the derived fields.
func fillLocation(geo *geocode.Resolver, p *store.RaceParams) {
	if geo == nil || (p.City != "" && p.State != "") {
		return
	}
	city, state, err := geo.CityState(p.Latitude, p.Longitude)
	if err != nil {
		log.Printf("reverse geocode failed: %v", err)
		return
	}
	if p.City == "" {
		p.City = city
	}
	if p.State == "" {
		p.State = state
	}
}

func parseID(c *fiber.Ctx) (int, error) {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid race id")
	}
	return id, nil
}

func parseCriteria(c *fiber.Ctx) (race.Criteria, error) {
	criteria := race.Criteria{
		Type:      c.Query("type", race.Wildcard),
		State:     c.Query("state", race.Wildcard),
		DateRange: race.DateRange(c.Query("dateRange", race.Wildcard)),
	}
	if !criteria.DateRange.Valid() {
		return race.Criteria{}, errors.New("invalid dateRange; use all, next7, next30, next60, next90 or thisYear")
	}
	return criteria, nil
}

// parseDate tries to parse either RFC3339 or a plain YYYY-MM-DD date.
func parseDate(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if ts, err := time.Parse("2006-01-02", s); err == nil {
		return ts, nil
	}
	return time.Time{}, errors.New("invalid race_date; use RFC3339 or YYYY-MM-DD")
}
