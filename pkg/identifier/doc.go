/*
Package identifier encodes and decodes variable identifiers.

A variable is addressed by an (entity type, entity id, field) triple. Two surface
forms exist:

  - System form: the bare storage key "type_entityId_field" (type optional), usually
    carried in the tagged wire envelope "@gv_<bare>-=". This is the only form
    guaranteed to be unique and the canonical form written by cardflow.
  - Display form: "sourceName.field#abcd", a lossy label made of the source name,
    the field and the first four characters of the entity id.

Parsing is best effort. Upstream data mixes several historical encodings, so the
parsers report "no information" with a false second return value instead of an
error, and never panic.
*/
package identifier
