package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/md-rashed-zaman/clinicbook/libs/auth"
	"github.com/md-rashed-zaman/clinicbook/libs/runtime"
	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/model"
)

// API bundles the handlers served under /api/v1.
type API struct {
	Auth         *AuthHandler
	Doctors      *DoctorHandler
	Patients     *PatientHandler
	Appointments *AppointmentHandler
	Admin        *AdminHandler
	Verifier     auth.Verifier
	ReadyChecks  []runtime.ReadyCheck
}

func (a API) Router() http.Handler {
	r := chi.NewRouter()
	runtime.MountProbes(r, a.ReadyChecks...)

	authed := auth.RequireAuth(a.Verifier)
	optional := auth.OptionalAuth(a.Verifier)
	role := func(roles ...model.Role) func(http.Handler) http.Handler {
		names := make([]string, len(roles))
		for i, rl := range roles {
			names[i] = string(rl)
		}
		return auth.RequireRole(names...)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", a.Auth.Register)
		r.Post("/auth/login", a.Auth.Login)
		r.With(authed).Get("/auth/me", a.Auth.Me)

		r.Route("/doctors", func(r chi.Router) {
			r.With(authed).Get("/", a.Doctors.List)
			r.With(optional).Get("/{doctorID}", a.Doctors.Get)

			r.Get("/{doctorID}/availability", a.Doctors.ListAvailability)
			r.Get("/{doctorID}/availability/slots", a.Doctors.Slots)
			r.Get("/{doctorID}/availability/{availabilityID}", a.Doctors.GetAvailability)

			r.Group(func(r chi.Router) {
				r.Use(authed, role(model.RoleDoctor, model.RoleAdmin))
				r.Post("/{doctorID}/availability", a.Doctors.CreateAvailability)
				r.Put("/{doctorID}/availability/{availabilityID}", a.Doctors.UpdateAvailability)
				r.Delete("/{doctorID}/availability/{availabilityID}", a.Doctors.DeleteAvailability)
			})
		})

		r.Route("/patients/me", func(r chi.Router) {
			r.Use(authed, role(model.RolePatient))
			r.Get("/", a.Patients.Me)
			r.Put("/", a.Patients.UpdateMe)
		})

		r.Route("/appointments", func(r chi.Router) {
			r.Use(authed)
			r.Get("/", a.Appointments.List)
			r.With(role(model.RolePatient)).Post("/", a.Appointments.Create)
			r.Get("/{appointmentID}", a.Appointments.Get)
			r.Delete("/{appointmentID}", a.Appointments.Cancel)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(authed, role(model.RoleAdmin))
			r.Get("/dashboard", a.Admin.Dashboard)
			r.Get("/users", a.Admin.Users)
			r.Put("/doctors/{doctorID}/approve", a.Admin.ApproveDoctor)
		})
	})
	return r
}
