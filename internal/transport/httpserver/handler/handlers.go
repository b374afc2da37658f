package handler

import (
	classeshandler "school-sos-go/internal/transport/httpserver/handler/classes"
	commonhandler "school-sos-go/internal/transport/httpserver/handler/common"
	schoolshandler "school-sos-go/internal/transport/httpserver/handler/schools"
	staffhandler "school-sos-go/internal/transport/httpserver/handler/staff"
	studentshandler "school-sos-go/internal/transport/httpserver/handler/students"
)

type Handlers struct {
	Common   *commonhandler.Handlers
	Schools  *schoolshandler.Handlers
	Staff    *staffhandler.Handlers
	Classes  *classeshandler.Handlers
	Students *studentshandler.Handlers
}

func New(common *commonhandler.Handlers, schools *schoolshandler.Handlers, staff *staffhandler.Handlers, classes *classeshandler.Handlers, students *studentshandler.Handlers) *Handlers {
	return &Handlers{
		Common:   common,
		Schools:  schools,
		Staff:    staff,
		Classes:  classes,
		Students: students,
	}
}
