// Package permission holds the per-user capability matrix and the role
// defaults applied when an account is provisioned.
package permission

import (
	"fmt"
	"strings"
)

// Role is a coarse account category. It only seeds defaults; the explicit
// capability flags on a user are authoritative.
type Role string

const (
	RoleSysAdmin Role = "SysAdmin"
	RoleManager  Role = "Manager"
	RoleDJ       Role = "DJ"
	RoleOther    Role = "Other"
)

// Roles lists every known role.
func Roles() []Role {
	return []Role{RoleSysAdmin, RoleManager, RoleDJ, RoleOther}
}

// ParseRole matches a role name case-insensitively.
func ParseRole(value string) (Role, error) {
	trimmed := strings.TrimSpace(value)
	for _, role := range Roles() {
		if strings.EqualFold(string(role), trimmed) {
			return role, nil
		}
	}
	return "", fmt.Errorf("permission: unknown role %q", value)
}

// Capability names a single permission flag as "<category>.<action>".
type Capability string

const (
	BookingView   Capability = "booking.view"
	BookingCreate Capability = "booking.create"
	BookingEdit   Capability = "booking.edit"
	BookingDelete Capability = "booking.delete"

	VenueView         Capability = "venue.view"
	VenueRegister     Capability = "venue.register"
	VenueEdit         Capability = "venue.edit"
	VenueDelete       Capability = "venue.delete"
	VenueToggleStatus Capability = "venue.toggleStatus"

	AdminManageUsers    Capability = "admin.manageUsers"
	AdminCustomizeApp   Capability = "admin.customizeApp"
	AdminAccessSettings Capability = "admin.accessSettings"

	RadioBossView    Capability = "radioBoss.view"
	RadioBossControl Capability = "radioBoss.control"
)

// Capabilities lists every capability in category order.
func Capabilities() []Capability {
	return []Capability{
		BookingView, BookingCreate, BookingEdit, BookingDelete,
		VenueView, VenueRegister, VenueEdit, VenueDelete, VenueToggleStatus,
		AdminManageUsers, AdminCustomizeApp, AdminAccessSettings,
		RadioBossView, RadioBossControl,
	}
}

type BookingPermissions struct {
	View   bool `json:"view"`
	Create bool `json:"create"`
	Edit   bool `json:"edit"`
	Delete bool `json:"delete"`
}

type VenuePermissions struct {
	View         bool `json:"view"`
	Register     bool `json:"register"`
	Edit         bool `json:"edit"`
	Delete       bool `json:"delete"`
	ToggleStatus bool `json:"toggleStatus"`
}

type AdminPermissions struct {
	ManageUsers    bool `json:"manageUsers"`
	CustomizeApp   bool `json:"customizeApp"`
	AccessSettings bool `json:"accessSettings"`
}

type RadioBossPermissions struct {
	View    bool `json:"view"`
	Control bool `json:"control"`
}

// Set is the full capability matrix for one user. Fields absent from a
// decoded document stay false.
type Set struct {
	Booking   BookingPermissions   `json:"booking"`
	Venue     VenuePermissions     `json:"venue"`
	Admin     AdminPermissions     `json:"admin"`
	RadioBoss RadioBossPermissions `json:"radioBoss"`
}

// Allows reports the flag for c. Unknown capabilities are never allowed.
func (s Set) Allows(c Capability) bool {
	switch c {
	case BookingView:
		return s.Booking.View
	case BookingCreate:
		return s.Booking.Create
	case BookingEdit:
		return s.Booking.Edit
	case BookingDelete:
		return s.Booking.Delete
	case VenueView:
		return s.Venue.View
	case VenueRegister:
		return s.Venue.Register
	case VenueEdit:
		return s.Venue.Edit
	case VenueDelete:
		return s.Venue.Delete
	case VenueToggleStatus:
		return s.Venue.ToggleStatus
	case AdminManageUsers:
		return s.Admin.ManageUsers
	case AdminCustomizeApp:
		return s.Admin.CustomizeApp
	case AdminAccessSettings:
		return s.Admin.AccessSettings
	case RadioBossView:
		return s.RadioBoss.View
	case RadioBossControl:
		return s.RadioBoss.Control
	default:
		return false
	}
}

// Granted lists the capabilities s allows.
func (s Set) Granted() []Capability {
	granted := make([]Capability, 0, len(Capabilities()))
	for _, c := range Capabilities() {
		if s.Allows(c) {
			granted = append(granted, c)
		}
	}
	return granted
}

// User is an account as seen by the authorization layer.
type User struct {
	Username    string
	FullName    string
	Role        Role
	Permissions *Set
	IsActive    bool
}

// Authorize reports whether user holds capability c. A nil user or a user
// without a permission set is denied.
func Authorize(user *User, c Capability) bool {
	if user == nil || user.Permissions == nil {
		return false
	}
	return user.Permissions.Allows(c)
}

// Defaults returns the capability set a newly provisioned account of role
// receives. Unknown roles get an empty set.
func Defaults(role Role) Set {
	switch role {
	case RoleSysAdmin:
		return Set{
			Booking:   BookingPermissions{View: true, Create: true, Edit: true, Delete: true},
			Venue:     VenuePermissions{View: true, Register: true, Edit: true, Delete: true, ToggleStatus: true},
			Admin:     AdminPermissions{ManageUsers: true, CustomizeApp: true, AccessSettings: true},
			RadioBoss: RadioBossPermissions{View: true, Control: true},
		}
	case RoleManager:
		return Set{
			Booking:   BookingPermissions{View: true, Create: true, Edit: true, Delete: true},
			Venue:     VenuePermissions{View: true, Register: true, Edit: true, Delete: true, ToggleStatus: true},
			Admin:     AdminPermissions{CustomizeApp: true, AccessSettings: true},
			RadioBoss: RadioBossPermissions{View: true, Control: true},
		}
	case RoleDJ:
		return Set{
			Booking:   BookingPermissions{View: true, Create: true, Edit: true},
			Venue:     VenuePermissions{View: true},
			RadioBoss: RadioBossPermissions{View: true},
		}
	case RoleOther:
		return Set{
			Booking: BookingPermissions{View: true},
			Venue:   VenuePermissions{View: true},
		}
	default:
		return Set{}
	}
}
