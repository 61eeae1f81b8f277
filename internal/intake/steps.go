package intake

// Kind is the input control used for a field.
type Kind string

const (
	Text     Kind = "text"
	TextArea Kind = "textarea"
	Date     Kind = "date"
	Number   Kind = "number"
	Email    Kind = "email"
	Phone    Kind = "tel"
	Select   Kind = "select"
	Checkbox Kind = "checkbox"
)

type Field struct {
	Name     string
	Label    string
	Kind     Kind
	Required bool
	Options  []string
	// EnabledBy names a checkbox that must be ticked for this field to be
	// used.  While it is unticked the value is discarded.
	EnabledBy string
}

type Step struct {
	Number int
	Title  string
	Fields []Field
}

// OtherConditionToggle is the checkbox that unlocks the free-text
// "other conditions" field.
const OtherConditionToggle = "other_condition"

var familyOptions = []string{"Yes", "No", "Unknown"}

var defaultSteps = []Step{
	{Number: 1, Title: "Personal Details", Fields: []Field{
		{Name: "full_name", Label: "Full Name", Kind: Text, Required: true},
		{Name: "dob", Label: "Date of Birth", Kind: Date, Required: true},
		{Name: "gender", Label: "Gender", Kind: Select, Required: true, Options: []string{"Male", "Female", "Other"}},
		{Name: "height", Label: "Height (cm)", Kind: Number},
		{Name: "weight", Label: "Weight (kg)", Kind: Number},
		{Name: "phone", Label: "Phone", Kind: Phone},
		{Name: "email", Label: "Email", Kind: Email},
	}},
	{Number: 2, Title: "Medical Conditions", Fields: []Field{
		{Name: "diabetes", Label: "Diabetes", Kind: Checkbox},
		{Name: "hypertension", Label: "Hypertension", Kind: Checkbox},
		{Name: "heart_disease", Label: "Heart Disease", Kind: Checkbox},
		{Name: "asthma", Label: "Asthma", Kind: Checkbox},
		{Name: "stroke", Label: "Stroke", Kind: Checkbox},
		{Name: OtherConditionToggle, Label: "Other", Kind: Checkbox},
		{Name: "other_conditions", Label: "Other conditions", Kind: Text, Required: true, EnabledBy: OtherConditionToggle},
	}},
	{Number: 3, Title: "Medications & Allergies", Fields: []Field{
		{Name: "current_medications", Label: "Current Medications", Kind: TextArea},
		{Name: "no_allergies", Label: "No known allergies", Kind: Checkbox},
		{Name: "medication_allergies", Label: "Medication Allergies", Kind: Text},
		{Name: "food_allergies", Label: "Food Allergies", Kind: Text},
		{Name: "environmental_allergies", Label: "Environmental Allergies", Kind: Text},
	}},
	{Number: 4, Title: "Family History", Fields: []Field{
		{Name: "family_diabetes", Label: "Diabetes", Kind: Select, Options: familyOptions},
		{Name: "family_heart_disease", Label: "Heart Disease", Kind: Select, Options: familyOptions},
		{Name: "family_stroke", Label: "Stroke", Kind: Select, Options: familyOptions},
		{Name: "family_cancer", Label: "Cancer", Kind: Select, Options: familyOptions},
		{Name: "family_mental_health", Label: "Mental Health Conditions", Kind: Select, Options: familyOptions},
	}},
	{Number: 5, Title: "Lifestyle", Fields: []Field{
		{Name: "smoking_status", Label: "Smoking", Kind: Select, Required: true, Options: []string{"Never", "Former", "Current"}},
		{Name: "alcohol_use", Label: "Alcohol Use", Kind: Select, Required: true, Options: []string{"None", "Occasional", "Regular"}},
		{Name: "exercise_frequency", Label: "Exercise Frequency", Kind: Select, Options: []string{"Rarely", "Weekly", "Daily"}},
		{Name: "diet", Label: "Diet", Kind: Text},
	}},
	{Number: 6, Title: "Mental Health & Additional Information", Fields: []Field{
		{Name: "anxiety", Label: "Anxiety", Kind: Checkbox},
		{Name: "depression", Label: "Depression", Kind: Checkbox},
		{Name: "ptsd", Label: "PTSD", Kind: Checkbox},
		{Name: "adhd", Label: "ADHD", Kind: Checkbox},
		{Name: "bipolar", Label: "Bipolar Disorder", Kind: Checkbox},
		{Name: "other_mental_health", Label: "Other", Kind: Text},
		{Name: "additional_info", Label: "Additional Information", Kind: TextArea},
	}},
}
