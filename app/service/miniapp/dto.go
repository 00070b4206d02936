package miniapp

import (
	"go-mpci/app/model/field"
	"go-mpci/app/pkg/repo"

	"go-mpci/app/model"
)

type SaveReq struct {
	ID     int64 `json:"id"`
	UserId int64 `json:"-"`

	Name         string `json:"name" binding:"required,max=100"`
	AppId        string `json:"app_id" binding:"required,max=50"`
	Description  string `json:"description" binding:"max=500"`
	GitUrl       string `json:"git_url" binding:"required,max=500"`
	Branch       string `json:"branch" binding:"max=100"`
	CredentialId int64  `json:"credential_id"`
	ProjectType  string `json:"project_type" binding:"omitempty,oneof=miniProgram miniProgramNative"`
	BuildCommand string `json:"build_command" binding:"max=500"`
	OutputDir    string `json:"output_dir" binding:"max=200"`
	PrivateKey   string `json:"private_key" binding:"max=500"`

	Minify        int    `json:"minify"`
	MinifyWXML    int    `json:"minify_wxml"`
	MinifyWXSS    int    `json:"minify_wxss"`
	CodeProtect   int    `json:"code_protect"`
	Es6           int    `json:"es6"`
	EnhancedCheck int    `json:"enhanced_check"`
	PackNpm       int    `json:"pack_npm"`
	AutoBuild     int    `json:"auto_build"`
	AutoVersion   int    `json:"auto_version"`
	QrcodeType    string `json:"qrcode_type" binding:"omitempty,oneof=image base64"`
}

func (r *SaveReq) fill(m *model.Miniapp) {
	m.Name = r.Name
	m.AppId = r.AppId
	m.Description = r.Description
	m.GitUrl = r.GitUrl
	m.CredentialId = r.CredentialId
	m.BuildCommand = r.BuildCommand
	m.PrivateKey = r.PrivateKey
	m.Minify = r.Minify
	m.MinifyWXML = r.MinifyWXML
	m.MinifyWXSS = r.MinifyWXSS
	m.CodeProtect = r.CodeProtect
	m.Es6 = r.Es6
	m.EnhancedCheck = r.EnhancedCheck
	m.PackNpm = r.PackNpm
	m.AutoBuild = r.AutoBuild
	m.AutoVersion = r.AutoVersion
	if m.Status == 0 {
		m.Status = field.StatusEnable
	}
	if r.Branch != "" {
		m.Branch = r.Branch
	}
	if r.ProjectType != "" {
		m.ProjectType = r.ProjectType
	}
	if r.OutputDir != "" {
		m.OutputDir = r.OutputDir
	}
	if r.QrcodeType != "" {
		m.QrcodeType = r.QrcodeType
	}
}

type BranchesRes struct {
	Branches []repo.Branch `json:"branches"`
	Default  string        `json:"default"`
}
