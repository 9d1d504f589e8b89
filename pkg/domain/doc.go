/*
Package domain contains the core model of the survey flow engine.

It defines survey graphs and the runtime state of an attempt. The package is kept
pure and free of I/O, following Hexagonal Architecture principles.

# Key Entities

  - Node: One screen of the survey. Its Kind selects a closed set of payloads
    (PresentationData, ChoiceData, RatingData, EndScreenData).
  - Edge: A directed transition, optionally conditioned on an option id or an exact rating value.
  - Graph / Survey: The immutable input of an attempt, plus the stored survey document fields.
  - Answer: The respondent's input for one node.
  - AttemptState: Current node, answers, visited path, running score and completion flag.
  - Result / Response: The artifact of a completed attempt and its stored form.
*/
package domain
