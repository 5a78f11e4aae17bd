package profile

import (
	"errors"
	"reflect"
	"strconv"
	"strings"
	"testing"
)

func filledForm() *Form {
	return &Form{
		PersonalInfo: PersonalInfo{Name: "Alice", Age: "28", Sex: "Female", Password: "secret"},
		Personality: Personality{
			Openness:          "4",
			Conscientiousness: "3",
			Extraversion:      "5",
			Agreeableness:     "4",
			Neuroticism:       "2",
		},
		Lifestyle: Lifestyle{Hobbies: "Reading, Music", Smoking: "no", Drinking: "no"},
	}
}

func TestSetFieldTraitMask(t *testing.T) {
	t.Parallel()

	inputs := []string{"0", "6", "-1", "10", "a", "3.5", " 3", "1e1"}
	for _, field := range TraitFields() {
		for _, input := range inputs {
			f := filledForm()
			before := f.Get(field)
			if f.SetField(field, input) {
				t.Fatalf("%s: expected %q to be rejected", field, input)
			}
			if got := f.Get(field); got != before {
				t.Fatalf("%s: value changed from %q to %q", field, before, got)
			}
		}

		f := &Form{}
		for v := 1; v <= 5; v++ {
			if !f.SetField(field, strconv.Itoa(v)) {
				t.Fatalf("%s: expected %d to be accepted", field, v)
			}
		}
		if !f.SetField(field, "") {
			t.Fatalf("%s: expected empty string to be accepted", field)
		}
	}
}

func TestSetFieldAgeMask(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input  string
		accept bool
	}{
		{"", true},
		{"1", true},
		{"28", true},
		{"120", true},
		{"0", false},
		{"121", false},
		{"150", false},
		{"abc", false},
		{"-5", false},
	}

	for _, tt := range tests {
		f := filledForm()
		got := f.SetField(FieldAge, tt.input)
		if got != tt.accept {
			t.Fatalf("age %q: expected accept=%v, got %v", tt.input, tt.accept, got)
		}
		want := "28"
		if tt.accept {
			want = tt.input
		}
		if f.PersonalInfo.Age != want {
			t.Fatalf("age %q: expected value %q, got %q", tt.input, want, f.PersonalInfo.Age)
		}
	}
}

func TestSetFieldFreeText(t *testing.T) {
	f := &Form{}
	if !f.SetField(FieldHobbies, " Reading,, Music ,") {
		t.Fatalf("hobbies must accept any text")
	}
	// hobbies are normalized at submission, not on keystroke
	if f.Lifestyle.Hobbies != " Reading,, Music ," {
		t.Fatalf("unexpected hobbies value %q", f.Lifestyle.Hobbies)
	}
	if f.SetField("favourite_color", "blue") {
		t.Fatalf("unknown field must be rejected")
	}
}

func TestValidateAll(t *testing.T) {
	t.Parallel()

	if errs := filledForm().ValidateAll(); len(errs) != 0 {
		t.Fatalf("expected valid form, got %v", errs)
	}

	errs := (&Form{}).ValidateAll()
	expected := []string{
		"Name is required",
		"Valid age (1-120) is required",
		"Gender is required",
		"Password is required",
		"At least one hobby is required",
		"Smoking preference is required",
		"Drinking preference is required",
		"Openness must be between 1-5",
		"Conscientiousness must be between 1-5",
		"Extraversion must be between 1-5",
		"Agreeableness must be between 1-5",
		"Neuroticism must be between 1-5",
	}
	if !reflect.DeepEqual(errs, expected) {
		t.Fatalf("unexpected errors:\n%v\nwant:\n%v", errs, expected)
	}
}

func TestValidateStep(t *testing.T) {
	f := filledForm()
	f.Lifestyle.Smoking = "sometimes"
	f.Lifestyle.Hobbies = " , "

	if errs := f.ValidateStep(StepPersonalInfo); len(errs) != 0 {
		t.Fatalf("unexpected personal info errors: %v", errs)
	}

	errs := f.ValidateStep(StepLifestyle)
	if len(errs) != 2 {
		t.Fatalf("expected 2 lifestyle errors, got %v", errs)
	}
	if errs[0] != "At least one hobby is required" {
		t.Fatalf("unexpected first error %q", errs[0])
	}
	if !strings.Contains(errs[1], "Smoking") {
		t.Fatalf("unexpected second error %q", errs[1])
	}
}

func TestProfileBlockedOnAge150(t *testing.T) {
	f := filledForm()
	// bypass the mask to simulate a value that arrived without keystrokes
	f.PersonalInfo.Age = "150"

	p, err := f.Profile()
	if p != nil {
		t.Fatalf("expected no profile for invalid form")
	}

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	found := false
	for _, msg := range verr.Messages {
		if strings.Contains(strings.ToLower(msg), "age") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an age error, got %v", verr.Messages)
	}
}

func TestProfileNormalizes(t *testing.T) {
	f := filledForm()
	f.Lifestyle.Hobbies = " Reading ,, Music, "
	f.Lifestyle.Smoking = "Occasionally"

	p, err := f.Profile()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if p.Age != 28 || p.Openness != 4 || p.Neuroticism != 2 {
		t.Fatalf("unexpected numbers: %+v", p)
	}
	if !reflect.DeepEqual(p.Hobbies, []string{"Reading", "Music"}) {
		t.Fatalf("unexpected hobbies %q", p.Hobbies)
	}
	if p.Smoking != "occasionally" {
		t.Fatalf("unexpected smoking %q", p.Smoking)
	}
	if p.Password != "secret" || p.Sex != "Female" {
		t.Fatalf("expected password and sex to be kept for registration")
	}
}

func TestNormalizeHobbiesIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"",
		"Reading",
		"Reading, Music",
		"  a ,b,, c  ,",
		",,,",
		"hiking , board games,  chess",
	}

	for _, input := range inputs {
		once := NormalizeHobbies(input)
		twice := NormalizeHobbies(strings.Join(once, ","))
		if !reflect.DeepEqual(once, twice) {
			t.Fatalf("%q: %q != %q", input, once, twice)
		}
		for _, h := range once {
			if h == "" || h != strings.TrimSpace(h) {
				t.Fatalf("%q: hobby %q is not normalized", input, h)
			}
		}
	}
}

func TestProgress(t *testing.T) {
	f := &Form{}
	f.SetField(FieldName, "Alice")
	f.SetField(FieldAge, "30")

	if got := f.Progress(StepPersonalInfo); got != 50 {
		t.Fatalf("expected 50%%, got %v", got)
	}
	if got := f.Progress(StepPersonality); got != 0 {
		t.Fatalf("expected 0%%, got %v", got)
	}
	if got := filledForm().Progress(StepLifestyle); got != 100 {
		t.Fatalf("expected 100%%, got %v", got)
	}
}

func TestRecordNormalizeRejectsGarbage(t *testing.T) {
	r := filledForm().Record()
	r.Openness = "high"
	r.Age = ""

	p, err := r.Normalize()
	if p != nil || err == nil {
		t.Fatalf("expected validation failure")
	}
	if !strings.Contains(err.Error(), "Openness must be between 1-5") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestSubmission(t *testing.T) {
	var s Submission
	if !s.Begin() {
		t.Fatalf("first submission must start")
	}
	if s.Begin() {
		t.Fatalf("second submission must be rejected while in progress")
	}
	s.Done()
	if s.InProgress() || !s.Begin() {
		t.Fatalf("submission must be possible after Done")
	}
}
