package sql

import "encoding/json"

// userModel is the GORM row for a registry.User. Validate tags are
// enforced by go-playground/validator before every insert/update, the
// same validation library the teacher's control-plane API layer
// depends on.
type userModel struct {
	ID       uint   `gorm:"primaryKey"`
	Username string `gorm:"uniqueIndex;size:255" validate:"required,max=255"`
	Domain   string `gorm:"size:255"`
	NTHash   []byte `gorm:"size:16" validate:"omitempty,len=16"`
	Disabled bool
}

func (userModel) TableName() string { return "registry_users" }

// shareModel is the GORM row for a registry.Share. Backend and the
// four string-slice access-control fields don't map onto scalar
// columns, so they're serialized: BackendKind/BackendConfig describe
// how to rebuild an fsbackend.Backend (see backend.go), and the
// access lists are stored as JSON arrays.
type shareModel struct {
	ID                uint   `gorm:"primaryKey"`
	Name              string `gorm:"uniqueIndex;size:255" validate:"required,max=255"`
	Path              string `gorm:"size:4096" validate:"required"`
	Pipe              bool
	BackendKind       string `gorm:"size:32" validate:"required,oneof=local s3"`
	BackendConfig     string `gorm:"type:text"`
	AllowGuest        bool
	DefaultPermission string `gorm:"size:16"`
	AllowHostsJSON    string `gorm:"column:allow_hosts;type:text"`
	DenyHostsJSON     string `gorm:"column:deny_hosts;type:text"`
	InvalidUsersJSON  string `gorm:"column:invalid_users;type:text"`
	ReadListJSON      string `gorm:"column:read_list;type:text"`
	WriteListJSON     string `gorm:"column:write_list;type:text"`
}

func (shareModel) TableName() string { return "registry_shares" }

func allModels() []any {
	return []any{&userModel{}, &shareModel{}}
}

func encodeStringList(list []string) string {
	if len(list) == 0 {
		return ""
	}
	b, _ := json.Marshal(list)
	return string(b)
}

func decodeStringList(raw string) []string {
	if raw == "" {
		return nil
	}
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil
	}
	return list
}
