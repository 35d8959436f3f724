package api

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/xraph/vesting"
	"github.com/xraph/vesting/claim"
	"github.com/xraph/vesting/pool"
	"github.com/xraph/vesting/schedule"
)

type initRequest struct {
	Administrator  string            `json:"administrator"`
	Token          string            `json:"token"`
	Mode           pool.Mode         `json:"mode"`
	InitialFunding vesting.Amount    `json:"initial_funding"`
	Release        *pool.Release     `json:"release,omitempty"`
	Schedules      []schedule.Params `json:"schedules,omitempty"`
}

type claimRequest struct {
	// Beneficiary defaults to the caller.
	Beneficiary string `json:"beneficiary,omitempty"`
}

type paymentRequest struct {
	Recipient string         `json:"recipient"`
	Amount    vesting.Amount `json:"amount"`
}

type depositRequest struct {
	Sender string         `json:"sender"`
	Amount vesting.Amount `json:"amount"`
	Tag    string         `json:"tag,omitempty"`
}

type administratorRequest struct {
	Administrator string `json:"administrator"`
}

// ClaimResponse reports a requested release. Claim is nil when nothing was due.
type ClaimResponse struct {
	Claim *claim.Claim `json:"claim"`
}

// ListResponse wraps a page of items.
type ListResponse[T any] struct {
	Items  []T `json:"items"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok", "version": vesting.Version})
}

func (s *Server) initVault(c *fiber.Ctx) error {
	env, err := s.callerEnv(c)
	if err != nil {
		return err
	}
	var req initRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	params := vesting.InitParams{
		Administrator:  req.Administrator,
		Token:          req.Token,
		Mode:           req.Mode,
		InitialFunding: req.InitialFunding,
		Release:        req.Release,
		Schedules:      req.Schedules,
	}
	if err := s.vault.Init(c.UserContext(), env, params); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusCreated)
}

func (s *Server) claim(c *fiber.Ctx) error {
	env, err := s.callerEnv(c)
	if err != nil {
		return err
	}
	var req claimRequest
	if len(c.Body()) > 0 {
		if err := bind(c, &req); err != nil {
			return err
		}
	}
	cl, err := s.vault.Claim(c.UserContext(), env, req.Beneficiary)
	if err != nil {
		return err
	}
	if cl == nil {
		return c.JSON(ClaimResponse{})
	}
	return c.Status(fiber.StatusAccepted).JSON(ClaimResponse{Claim: cl})
}

func (s *Server) payment(c *fiber.Ctx) error {
	env, err := s.callerEnv(c)
	if err != nil {
		return err
	}
	var req paymentRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	cl, err := s.vault.Payment(c.UserContext(), env, req.Recipient, req.Amount)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(ClaimResponse{Claim: cl})
}

func (s *Server) setSchedule(c *fiber.Ctx) error {
	env, err := s.callerEnv(c)
	if err != nil {
		return err
	}
	var params schedule.Params
	if err := bind(c, &params); err != nil {
		return err
	}
	sched, err := s.vault.AddOrReplaceSchedule(c.UserContext(), env, params)
	if err != nil {
		return err
	}
	return c.JSON(sched.ViewAt(env.Now))
}

func (s *Server) removeSchedule(c *fiber.Ctx) error {
	env, err := s.callerEnv(c)
	if err != nil {
		return err
	}
	removed, err := s.vault.RemoveSchedule(c.UserContext(), env, c.Params("beneficiary"))
	if err != nil {
		return err
	}
	return c.JSON(removed)
}

func (s *Server) deposit(c *fiber.Ctx) error {
	env, err := s.callerEnv(c)
	if err != nil {
		return err
	}
	var req depositRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := s.vault.DepositNotification(c.UserContext(), env, req.Sender, req.Amount, req.Tag); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) setAdministrator(c *fiber.Ctx) error {
	env, err := s.callerEnv(c)
	if err != nil {
		return err
	}
	var req administratorRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := s.vault.SetAdministrator(c.UserContext(), env, req.Administrator); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) poolSummary(c *fiber.Ctx) error {
	sum, err := s.vault.PoolSummary(c.UserContext(), s.env(c).Now)
	if err != nil {
		return err
	}
	return c.JSON(sum)
}

func (s *Server) getSchedule(c *fiber.Ctx) error {
	view, err := s.vault.GetSchedule(c.UserContext(), c.Params("beneficiary"), s.env(c).Now)
	if err != nil {
		return err
	}
	return c.JSON(view)
}

func (s *Server) listSchedules(c *fiber.Ctx) error {
	limit, offset, err := pagination(c)
	if err != nil {
		return err
	}
	views, err := s.vault.ListSchedules(c.UserContext(), schedule.ListOpts{Limit: limit, Offset: offset}, s.env(c).Now)
	if err != nil {
		return err
	}
	return c.JSON(ListResponse[*schedule.View]{Items: views, Limit: limit, Offset: offset})
}

func (s *Server) listClaims(c *fiber.Ctx) error {
	limit, offset, err := pagination(c)
	if err != nil {
		return err
	}
	claims, err := s.vault.ListPendingClaims(c.UserContext(), claim.ListOpts{Limit: limit, Offset: offset})
	if err != nil {
		return err
	}
	return c.JSON(ListResponse[*claim.Claim]{Items: claims, Limit: limit, Offset: offset})
}

// callerEnv is env for mutating routes, which require a caller.
func (s *Server) callerEnv(c *fiber.Ctx) (vesting.Env, error) {
	env := s.env(c)
	if env.Caller == "" {
		return env, ErrUnauthenticated
	}
	return env, nil
}

func bind(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return badRequest{err: err}
	}
	return nil
}

// pagination parses limit and offset, defaulting and capping the limit.
func pagination(c *fiber.Ctx) (limit, offset int, err error) {
	limit = DefaultLimit
	if v := c.Query("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil {
			return 0, 0, badRequest{err: errors.New("invalid limit: " + v)}
		}
	}
	if v := c.Query("offset"); v != "" {
		if offset, err = strconv.Atoi(v); err != nil {
			return 0, 0, badRequest{err: errors.New("invalid offset: " + v)}
		}
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset, nil
}
