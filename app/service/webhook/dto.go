package webhook

import (
	"go-mpci/app/model"
	"go-mpci/app/model/field"
)

type SaveReq struct {
	AppId    int64                `json:"app_id" binding:"required"`
	Provider string               `json:"provider" binding:"required,oneof=github gitlab gitee"`
	Events   field.Slices[string] `json:"events" binding:"omitempty,dive,oneof=push pull_request tag"`
	Secret   string               `json:"secret" binding:"max=500"`
	Status   field.Status         `json:"status" binding:"omitempty,oneof=1 2"`
}

func (r *SaveReq) fill() {
	if len(r.Events) == 0 {
		r.Events = field.Slices[string]{model.WebhookEventPush}
	}
	if r.Status == 0 {
		r.Status = field.StatusEnable
	}
}
