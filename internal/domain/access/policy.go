package access

type StudentScope struct {
	IsOwnClass bool
	SameSchool bool
}

func CanManageSchools(role Role) bool {
	return role == RoleOwner
}

func CanManageAdmins(role Role) bool {
	return role == RoleOwner
}

func CanManageTeachers(role Role) bool {
	return role == RoleAdmin
}

func CanManageClasses(role Role) bool {
	return role == RoleAdmin
}

// CanManageStudents gates student create/update/delete. Owners and admins
// work at the school and class level and never edit student records
// directly through this path.
func CanManageStudents(role Role, scope StudentScope) bool {
	return role == RoleTeacher && scope.IsOwnClass
}

// CanManageStudentRecords gates the administrative fields of a student
// (wristband and school number). Only an admin of the same school may
// change them.
func CanManageStudentRecords(role Role, scope StudentScope) bool {
	return role == RoleAdmin && scope.SameSchool
}

func CanReadStudents(role Role, scope StudentScope) bool {
	switch role {
	case RoleOwner:
		return true
	case RoleAdmin:
		return scope.SameSchool
	case RoleTeacher:
		return scope.IsOwnClass && scope.SameSchool
	}
	return false
}

// CanReadSchool lets the owner read every school and staff read their own.
func CanReadSchool(actor Actor, schoolID string) bool {
	if actor.Role == RoleOwner {
		return true
	}
	return actor.SameTenant(schoolID)
}
