package models

import (
	"strings"

	"PulseDesk/pkg/util"
)

// Requests for the dashboard HTTP endpoints.

type NewsRequest struct {
	Section string `query:"section" json:"section" validate:"omitempty,max=32,alphanum"`
	Debug   bool   `query:"debug" json:"debug"`
}

func (r *NewsRequest) Canonicalize() {
	r.Section = strings.ToLower(strings.TrimSpace(r.Section))
}

type MarketRequest struct {
	Group   string   `query:"group" json:"group" default:"stocks" validate:"required,oneof=stocks crypto metals fx"`
	Symbols string   `query:"symbols" json:"symbols" validate:"max=256"`
	List    []string `json:"-" validate:"max=25,dive,max=16"`
	Debug   bool     `query:"debug" json:"debug"`
}

func (r *MarketRequest) Canonicalize() {
	r.Group = strings.ToLower(strings.TrimSpace(r.Group))
	r.List = util.UniqueSorted(util.SplitList(r.Symbols))
}

type MoversRequest struct {
	Debug bool `query:"debug" json:"debug"`
}

func (r *MoversRequest) Canonicalize() {}

type MiniRequest struct {
	Debug bool `query:"debug" json:"debug"`
}

func (r *MiniRequest) Canonicalize() {}
