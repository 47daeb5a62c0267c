package models

// Action names an operation guarded by the role policy.
type Action string

const (
	ActionBookAppointment   Action = "appointment:book"
	ActionConfirm           Action = "appointment:confirm"
	ActionReject            Action = "appointment:reject"
	ActionCancel            Action = "appointment:cancel"
	ActionListAppointments  Action = "appointment:list"
	ActionCreateSlot        Action = "slot:create"
	ActionCreateDepartment  Action = "department:create"
	ActionListDepartments   Action = "department:list"
	ActionListNotifications Action = "notification:list"
)

var rolePolicy = map[Action][]UserRole{
	ActionBookAppointment:   {RolePatient},
	ActionConfirm:           {RoleDoctor},
	ActionReject:            {RoleDoctor},
	ActionCancel:            {RolePatient},
	ActionListAppointments:  {RolePatient, RoleDoctor, RoleHospitalAdmin},
	ActionCreateSlot:        {RoleDoctor},
	ActionCreateDepartment:  {RoleHospitalAdmin},
	ActionListDepartments:   {RolePatient, RoleDoctor, RoleHospitalAdmin},
	ActionListNotifications: {RolePatient, RoleDoctor, RoleHospitalAdmin},
}

// Allows reports whether role may perform action. Unknown actions are denied.
func Allows(role UserRole, action Action) bool {
	for _, r := range rolePolicy[action] {
		if r == role {
			return true
		}
	}
	return false
}

// RolesFor returns the roles allowed to perform action.
func RolesFor(action Action) []UserRole {
	roles := rolePolicy[action]
	out := make([]UserRole, len(roles))
	copy(out, roles)
	return out
}
