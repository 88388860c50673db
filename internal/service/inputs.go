package service

// TaskInput - сырой клиентский ввод. nil означает, что поле не передано;
// Range, Reward и Deadline принимают любую форму, которую понимает normalize.
type TaskInput struct {
	Title       *string
	Description *string
	Category    *string
	Range       any
	Reward      any
	Deadline    any
	Reach       *string
	Status      *string
}

type OfferInput struct {
	TaskID   string
	Amount   any
	Deadline any
	Message  string
}

type CategoryInput struct {
	Title       *string
	Description *string
}

type SkillInput struct {
	Title       *string
	Description *string
	Range       any
	Reward      any
	Deadline    any
	Reach       *string
	Status      *string
}
