package backend

import (
	"fmt"
	"net/url"
	"sync"

	"github.com/go-playground/validator/v10"
)

const (
	registerPath      = "/register"
	profilePath       = "/profile"
	profileByNamePath = "/profile/%s"
)

// Habit is the answer to a lifestyle question.
type Habit string

const (
	HabitYes          Habit = "yes"
	HabitNo           Habit = "no"
	HabitOccasionally Habit = "occasionally"
)

// Habits lists the accepted lifestyle answers in display order.
func Habits() []Habit {
	return []Habit{HabitYes, HabitNo, HabitOccasionally}
}

type Profile struct {
	Name              string   `json:"name" yaml:"name" validate:"required"`
	Age               int      `json:"age" yaml:"age" validate:"min=1,max=120"`
	Sex               string   `json:"sex,omitempty" yaml:"sex"`
	Openness          int      `json:"openness" yaml:"openness" validate:"min=1,max=5"`
	Conscientiousness int      `json:"conscientiousness" yaml:"conscientiousness" validate:"min=1,max=5"`
	Extraversion      int      `json:"extraversion" yaml:"extraversion" validate:"min=1,max=5"`
	Agreeableness     int      `json:"agreeableness" yaml:"agreeableness" validate:"min=1,max=5"`
	Neuroticism       int      `json:"neuroticism" yaml:"neuroticism" validate:"min=1,max=5"`
	Hobbies           []string `json:"hobbies" yaml:"hobbies" validate:"required,min=1,dive,required"`
	Smoking           Habit    `json:"smoking" yaml:"smoking" validate:"oneof=yes no occasionally"`
	Drinking          Habit    `json:"drinking" yaml:"drinking" validate:"oneof=yes no occasionally"`
	// Password is write-only. It is sent on registration and dropped from everything read back.
	Password string `json:"password,omitempty" yaml:"-"`
}

// WithoutPassword returns a copy of the profile safe to embed in other payloads.
func (p Profile) WithoutPassword() Profile {
	p.Password = ""
	p.Hobbies = append([]string(nil), p.Hobbies...)
	return p
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func profileValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks the structural rules every profile must satisfy before it is sent.
func (p *Profile) Validate() error {
	if err := profileValidator().Struct(p); err != nil {
		return fmt.Errorf("invalid profile %q: %w", p.Name, err)
	}
	return nil
}

// ProfileDetails is the payload of the legacy /profile resource owned by the signed-in user.
type ProfileDetails struct {
	Age               int      `json:"age"`
	Gender            string   `json:"gender"`
	Location          string   `json:"location,omitempty"`
	Openness          int      `json:"openness"`
	Conscientiousness int      `json:"conscientiousness"`
	Extraversion      int      `json:"extraversion"`
	Agreeableness     int      `json:"agreeableness"`
	Neuroticism       int      `json:"neuroticism"`
	Hobbies           []string `json:"hobbies"`
	Smoking           Habit    `json:"smoking"`
	Drinking          Habit    `json:"drinking"`
}

// Register creates a new account together with its profile.
func (c *Client) Register(profile *Profile) error {
	if profile == nil {
		return fmt.Errorf("profile is required")
	}
	if profile.Password == "" {
		return fmt.Errorf("password is required for registration")
	}
	if err := profile.Validate(); err != nil {
		return err
	}

	return c.postJSON(c.url(registerPath), profile, nil)
}

func (c *Client) GetProfile(name string) (*Profile, error) {
	if name == "" {
		return nil, fmt.Errorf("profile name is required")
	}

	var profile Profile
	if err := c.getJSON(c.url(fmt.Sprintf(profileByNamePath, url.PathEscape(name))), &profile); err != nil {
		return nil, err
	}

	// The backend echoes the stored password hash. It never leaves this function.
	profile.Password = ""

	return &profile, nil
}

func (c *Client) GetMyProfile() (*ProfileDetails, error) {
	var details ProfileDetails
	if err := c.getJSON(c.url(profilePath), &details); err != nil {
		return nil, err
	}
	return &details, nil
}

func (c *Client) CreateProfile(details *ProfileDetails) (*ProfileDetails, error) {
	return c.sendProfile(c.postJSON, details)
}

func (c *Client) UpdateProfile(details *ProfileDetails) (*ProfileDetails, error) {
	return c.sendProfile(c.putJSON, details)
}

func (c *Client) sendProfile(send func(string, any, any) error, details *ProfileDetails) (*ProfileDetails, error) {
	if details == nil {
		return nil, fmt.Errorf("profile details are required")
	}

	var saved ProfileDetails
	if err := send(c.url(profilePath), details, &saved); err != nil {
		return nil, err
	}
	return &saved, nil
}
