package model

import "github.com/kaia-invest/kaia-core/internal/coerce"

// AdminProfile is the administrator's own profile.
type AdminProfile struct {
	Name         string
	PhoneNumber  string
	DateOfBirth  string
	ProfileImage string
}

func AdminProfileFromWire(r Record) AdminProfile {
	return AdminProfile{
		Name:         coerce.ToStr(r.Get("name")),
		PhoneNumber:  coerce.ToStr(r.Get("phone_number")),
		DateOfBirth:  coerce.ToStr(r.Get("date_of_birth")),
		ProfileImage: coerce.ToStr(r.Get("profile_image")),
	}
}

func AdminProfileToWire(m AdminProfile) Record {
	return Record{
		"name":          m.Name,
		"phone_number":  m.PhoneNumber,
		"date_of_birth": m.DateOfBirth,
		"profile_image": m.ProfileImage,
	}
}

// AdminSettings are the administrator's preferences. This is the one
// resource whose wire keys are camelCase.
type AdminSettings struct {
	PushNotifications  bool
	EmailNotifications bool
	Theme              string
	TwoFactorEnabled   bool
}

// AdminSettingsFromWire only treats a literal true as enabled.
func AdminSettingsFromWire(r Record) AdminSettings {
	return AdminSettings{
		PushNotifications:  r.Get("pushNotifications") == true,
		EmailNotifications: r.Get("emailNotifications") == true,
		Theme:              coerce.ToStr(r.Get("theme"), "light"),
		TwoFactorEnabled:   r.Get("twoFactorEnabled") == true,
	}
}

func AdminSettingsToWire(m AdminSettings) Record {
	return Record{
		"pushNotifications":  m.PushNotifications,
		"emailNotifications": m.EmailNotifications,
		"theme":              m.Theme,
		"twoFactorEnabled":   m.TwoFactorEnabled,
	}
}

// AdminStat is one dashboard tile.
type AdminStat struct {
	Title string
	Value string
	Icon  string
}

func AdminStatFromWire(r Record) AdminStat {
	return AdminStat{
		Title: coerce.ToStr(r.Get("title")),
		Value: coerce.ToStr(r.Get("value")),
		Icon:  coerce.ToStr(r.Get("icon")),
	}
}

func AdminStatToWire(m AdminStat) Record {
	return Record{"title": m.Title, "value": m.Value, "icon": m.Icon}
}
